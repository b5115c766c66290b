package analyzer

import (
	"fmt"

	"poker-coach/internal/conversation"

	"github.com/pkoukk/tiktoken-go"
)

// perMessageOverhead - служебные токены разметки на каждое сообщение чата.
const perMessageOverhead = 4

// TokenEstimator оценивает размер истории до отправки.
type TokenEstimator interface {
	Estimate(messages []conversation.Message) int
}

type tiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator picks the encoding of the model, falling back to
// cl100k_base for models tiktoken does not know. Loading an encoding may
// download its BPE ranks on first use.
func NewTiktokenEstimator(model string) (TokenEstimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to load tiktoken encoding: %w", err)
		}
	}
	return &tiktokenEstimator{enc: enc}, nil
}

func (e *tiktokenEstimator) Estimate(messages []conversation.Message) int {
	total := 0
	for _, m := range messages {
		total += perMessageOverhead + len(e.enc.Encode(m.Content, nil, nil))
	}
	return total
}
