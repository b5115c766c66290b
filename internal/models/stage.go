package models

// Stage - позиция сессии в цикле раздачи.
// Строковые значения используются в логах и событиях.
type Stage string

const (
	StageHole            Stage = "hole"
	StageAwaitHolePhoto  Stage = "await_hole_photo"
	StageFlop            Stage = "flop"
	StageAwaitFlopPhoto  Stage = "await_flop_photo"
	StageTurn            Stage = "turn"
	StageAwaitTurnPhoto  Stage = "await_turn_photo"
	StageRiver           Stage = "river"
	StageAwaitRiverPhoto Stage = "await_river_photo"
)

// nextStage - фиксированная циклическая таблица переходов.
var nextStage = map[Stage]Stage{
	StageHole:            StageAwaitHolePhoto,
	StageAwaitHolePhoto:  StageFlop,
	StageFlop:            StageAwaitFlopPhoto,
	StageAwaitFlopPhoto:  StageTurn,
	StageTurn:            StageAwaitTurnPhoto,
	StageAwaitTurnPhoto:  StageRiver,
	StageRiver:           StageAwaitRiverPhoto,
	StageAwaitRiverPhoto: StageHole,
}

var stageStreet = map[Stage]Street{
	StageHole:            StreetHole,
	StageAwaitHolePhoto:  StreetHole,
	StageFlop:            StreetFlop,
	StageAwaitFlopPhoto:  StreetFlop,
	StageTurn:            StreetTurn,
	StageAwaitTurnPhoto:  StreetTurn,
	StageRiver:           StreetRiver,
	StageAwaitRiverPhoto: StreetRiver,
}

// Valid reports whether s is one of the eight known stages.
func (s Stage) Valid() bool {
	_, ok := nextStage[s]
	return ok
}

// Next returns the successor stage. Unknown stages map to StageHole.
func (s Stage) Next() Stage {
	if next, ok := nextStage[s]; ok {
		return next
	}
	return StageHole
}

// IsAwaitingPhoto is true for the four await_* stages.
func (s Stage) IsAwaitingPhoto() bool {
	switch s {
	case StageAwaitHolePhoto, StageAwaitFlopPhoto, StageAwaitTurnPhoto, StageAwaitRiverPhoto:
		return true
	}
	return false
}

// Street returns the street the stage belongs to.
func (s Stage) Street() (Street, bool) {
	st, ok := stageStreet[s]
	return st, ok
}

func (s Stage) String() string { return string(s) }

// Street - одна из четырёх улиц раздачи.
type Street string

const (
	StreetHole  Street = "hole"
	StreetFlop  Street = "flop"
	StreetTurn  Street = "turn"
	StreetRiver Street = "river"
)

// ExpectedCards - сколько карт должно быть распознано на фото этой улицы.
// Для борда число кумулятивное: флоп 3, тёрн 4, ривер 5.
func (s Street) ExpectedCards() int {
	switch s {
	case StreetHole:
		return 2
	case StreetFlop:
		return 3
	case StreetTurn:
		return 4
	case StreetRiver:
		return 5
	}
	return 0
}

// PromptStage returns the non-await stage of the street.
func (s Street) PromptStage() Stage {
	switch s {
	case StreetFlop:
		return StageFlop
	case StreetTurn:
		return StageTurn
	case StreetRiver:
		return StageRiver
	}
	return StageHole
}

// PressKind - тип нажатия кнопки на очках.
type PressKind string

const (
	PressShort PressKind = "short"
	PressLong  PressKind = "long"
)

// ParsePressKind maps the device's pressType field. Anything that is not
// "long" counts as a short press.
func ParsePressKind(raw string) PressKind {
	if raw == string(PressLong) {
		return PressLong
	}
	return PressShort
}
