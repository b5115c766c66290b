// Package conversation хранит историю сообщений раздачи, которая уходит в
// сервис анализа, чтобы совет на поздних улицах учитывал ранние.
package conversation

// Role - автор сообщения.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message - одна реплика истории.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DefaultSystemPrompt задает роль ассистента.
const DefaultSystemPrompt = "You are a intelligent poker assistant for new players. " +
	"The user will give you a Texas Hold'em hand and optionally the flop, turn, or river, depending on the phase of the game. " +
	"You will analyze the hand and return a JSON object with the win probability and a one-sentence tip. " +
	"The win probability should be a number between 0 and 100, inclusive. " +
	"The tip should be easy to understand for a beginner poker player. " +
	"Format the tip for a beginner, and seek to teach in addition to provide advice " +
	"Do not simply repeat the Win Probability." +
	"There are always 4 players at the table. " +
	"Return only a raw JSON object. Do not include any markdown, code block, or explanation." +
	"Do not use emojis or special characters."

// Context - история одной раздачи. Первый элемент всегда системный.
// Не потокобезопасен: владелец (сессия) держит свой мьютекс.
type Context struct {
	system   string
	messages []Message
}

// New creates a context holding only the system message. An empty prompt
// falls back to DefaultSystemPrompt.
func New(systemPrompt string) *Context {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	c := &Context{system: systemPrompt}
	c.Reset()
	return c
}

// Messages returns a copy of the history.
func (c *Context) Messages() []Message {
	return append([]Message(nil), c.messages...)
}

// WithPending returns the history followed by a user turn that is not yet
// committed.
func (c *Context) WithPending(userContent string) []Message {
	out := make([]Message, 0, len(c.messages)+1)
	out = append(out, c.messages...)
	return append(out, Message{Role: RoleUser, Content: userContent})
}

// Commit appends a completed exchange: the user turn and the assistant reply.
func (c *Context) Commit(userContent, assistantContent string) {
	c.messages = append(c.messages,
		Message{Role: RoleUser, Content: userContent},
		Message{Role: RoleAssistant, Content: assistantContent},
	)
}

// Len is 1 + 2k after k committed exchanges.
func (c *Context) Len() int { return len(c.messages) }

// Reset оставляет только системное сообщение.
func (c *Context) Reset() {
	c.messages = []Message{{Role: RoleSystem, Content: c.system}}
}
