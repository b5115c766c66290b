package models

import "time"

// HandAnalysis - разобранный ответ сервиса анализа.
type HandAnalysis struct {
	WinProbability float64 `json:"win_probability"`
	Tip            string  `json:"tip"`
	StageLabel     string  `json:"stage_label"`
}

// RoundedProbability is the integer percentage spoken to the player.
func (a HandAnalysis) RoundedProbability() int {
	p := a.WinProbability
	if p < 0 {
		return 0
	}
	return int(p + 0.5)
}

// HandEvent is published after every successful street analysis.
type HandEvent struct {
	EventID        string    `json:"event_id"`
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id"`
	Street         Street    `json:"street"`
	StageLabel     string    `json:"stage_label"`
	Hole           []string  `json:"hole"`
	Board          []string  `json:"board"`
	WinProbability float64   `json:"win_probability"`
	Tip            string    `json:"tip"`
	HandComplete   bool      `json:"hand_complete"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// VoiceSettings передаются с каждым speak-запросом к устройству.
type VoiceSettings struct {
	VoiceID         string  `json:"voice_id"`
	ModelID         string  `json:"model_id"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	Speed           float64 `json:"speed"`
}
