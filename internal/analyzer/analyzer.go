package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"poker-coach/internal/cards"
	"poker-coach/internal/conversation"
	"poker-coach/internal/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const formatInstruction = " Return a JSON object in the format: " +
	`{win_probability: number (0–100), tip: "A one-sentence tip to be read aloud to the player."}`

// Analyzer оценивает раздачу и дает совет.
type Analyzer interface {
	// Analyze sends the hand with the accumulated context. The context is
	// extended only when the reply parsed successfully.
	Analyze(ctx context.Context, userID string, conv *conversation.Context, hole, board []string) (*models.HandAnalysis, error)
}

// reply - ожидаемый JSON ответа модели.
type reply struct {
	WinProbability *float64 `json:"win_probability" validate:"required"`
	Tip            *string  `json:"tip" validate:"required"`
}

// HandAnalyzer implements Analyzer on top of an AIClient.
type HandAnalyzer struct {
	client    AIClient
	estimator TokenEstimator
	validate  *validator.Validate
	logger    *zap.Logger
}

var _ Analyzer = (*HandAnalyzer)(nil)

// NewHandAnalyzer создает анализатор. estimator может быть nil.
func NewHandAnalyzer(client AIClient, estimator TokenEstimator, logger *zap.Logger) *HandAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandAnalyzer{
		client:    client,
		estimator: estimator,
		validate:  validator.New(),
		logger:    logger.Named("HandAnalyzer"),
	}
}

func (a *HandAnalyzer) Analyze(ctx context.Context, userID string, conv *conversation.Context, hole, board []string) (*models.HandAnalysis, error) {
	label, err := StageLabel(len(board))
	if err != nil {
		analysisOutcomes.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	userMsg := BuildUserMessage(label, hole, board)
	messages := conv.WithPending(userMsg)

	log := a.logger.With(zap.String("userID", userID), zap.String("stage", label))
	if a.estimator != nil {
		estimated := a.estimator.Estimate(messages)
		contextEstimatedTokens.Observe(float64(estimated))
		log.Debug("Sending hand for analysis", zap.Int("messages", len(messages)), zap.Int("estimatedTokens", estimated))
	}

	content, _, err := a.client.Chat(ctx, userID, messages)
	if err != nil {
		analysisOutcomes.WithLabelValues("error_ai").Inc()
		return nil, fmt.Errorf("%w: %w", models.ErrAnalysis, err)
	}

	content = strings.TrimSpace(content)
	analysis, err := a.parseReply(content)
	if err != nil {
		analysisOutcomes.WithLabelValues("error_parse").Inc()
		log.Error("Invalid analysis reply", zap.String("content", content), zap.Error(err))
		return nil, err
	}
	analysis.StageLabel = label

	conv.Commit(userMsg, content)
	analysisOutcomes.WithLabelValues("success").Inc()
	log.Info("Hand analyzed", zap.Float64("winProbability", analysis.WinProbability), zap.Int("contextLen", conv.Len()))
	return analysis, nil
}

// StageLabel maps the board size to the label used in the prompt.
func StageLabel(boardLen int) (string, error) {
	switch boardLen {
	case 0:
		return "pre-flop", nil
	case 3:
		return "flop", nil
	case 4:
		return "turn", nil
	case 5:
		return "river", nil
	}
	return "", fmt.Errorf("%w: unexpected board size %d", models.ErrAnalysis, boardLen)
}

// BuildUserMessage формирует текст запроса для одной улицы.
func BuildUserMessage(label string, hole, board []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stage: %s. My hand is %s.", label, strings.Join(hole, " and "))
	if len(board) > 0 {
		fmt.Fprintf(&b, " Community cards: %s.", strings.Join(board, ", "))
	}
	if made := cards.Describe(hole, board); made != "" {
		fmt.Fprintf(&b, " Current made hand: %s.", made)
	}
	b.WriteString(formatInstruction)
	return b.String()
}

// ParseReply строго разбирает ответ: только сырой JSON объект, оба поля обязательны.
func ParseReply(content string) (*models.HandAnalysis, error) {
	return NewHandAnalyzer(nil, nil, nil).parseReply(content)
}

func (a *HandAnalyzer) parseReply(content string) (*models.HandAnalysis, error) {
	var r reply
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &r); err != nil {
		return nil, fmt.Errorf("%w: reply is not valid JSON: %v", models.ErrAnalysis, err)
	}
	if err := a.validate.Struct(&r); err != nil {
		return nil, fmt.Errorf("%w: reply is missing fields: %v", models.ErrAnalysis, err)
	}
	tip := strings.TrimSpace(*r.Tip)
	if tip == "" {
		return nil, fmt.Errorf("%w: reply has an empty tip", models.ErrAnalysis)
	}
	return &models.HandAnalysis{
		WinProbability: ClampProbability(*r.WinProbability),
		Tip:            tip,
	}, nil
}

// ClampProbability ограничивает значение отрезком [0, 100].
func ClampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
