package models

// PlayerState - карты текущей раздачи и стадия сессии.
type PlayerState struct {
	Stage Stage    `json:"stage"`
	Hole  []string `json:"hole"`
	Board []string `json:"board"`
}

// NewPlayerState returns the initial state {Hole, [], []}.
func NewPlayerState() PlayerState {
	return PlayerState{
		Stage: StageHole,
		Hole:  []string{},
		Board: []string{},
	}
}

// Reset возвращает состояние к началу раздачи.
func (p *PlayerState) Reset() {
	*p = NewPlayerState()
}

// ClearStreet clears only the slot owned by the street: hole cards for
// StreetHole, the board for any board street.
func (p *PlayerState) ClearStreet(street Street) {
	if street == StreetHole {
		p.Hole = []string{}
		return
	}
	p.Board = []string{}
}

// ApplyDetected stores labels that already passed count validation.
//
// Hole cards are overwritten. At the flop the board is replaced. At the turn
// and river the new cards are appended in detected order when every stored
// board card is still present, otherwise the board is replaced with what the
// camera sees now.
func (p *PlayerState) ApplyDetected(street Street, labels []string) {
	detected := append([]string(nil), labels...)
	switch street {
	case StreetHole:
		p.Hole = detected
	case StreetFlop:
		p.Board = detected
	default:
		p.Board = mergeBoard(p.Board, detected)
	}
}

func mergeBoard(stored, detected []string) []string {
	if len(stored) == 0 {
		return detected
	}
	seen := make(map[string]struct{}, len(detected))
	for _, l := range detected {
		seen[l] = struct{}{}
	}
	for _, l := range stored {
		if _, ok := seen[l]; !ok {
			return detected
		}
	}

	known := make(map[string]struct{}, len(stored))
	merged := make([]string, 0, len(detected))
	for _, l := range stored {
		known[l] = struct{}{}
		merged = append(merged, l)
	}
	for _, l := range detected {
		if _, ok := known[l]; ok {
			continue
		}
		merged = append(merged, l)
	}
	return merged
}

// Clone returns a deep copy safe to hand to other goroutines.
func (p PlayerState) Clone() PlayerState {
	return PlayerState{
		Stage: p.Stage,
		Hole:  append([]string{}, p.Hole...),
		Board: append([]string{}, p.Board...),
	}
}
