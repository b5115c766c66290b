// Package cards переводит метки классификатора ("AH", "10S", "QD") в карты
// github.com/paulhankin/poker и описывает собранную комбинацию.
package cards

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulhankin/poker"
)

// ErrInvalidLabel - метку нельзя разобрать как карту.
var ErrInvalidLabel = errors.New("invalid card label")

var ranks = map[string]poker.Rank{
	"A": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7,
	"8": 8, "9": 9, "10": 10, "T": 10, "J": 11, "Q": 12, "K": 13,
}

var suits = map[byte]poker.Suit{
	'C': poker.Club,
	'D': poker.Diamond,
	'H': poker.Heart,
	'S': poker.Spade,
}

var rankNames = map[poker.Rank]string{
	1: "ace", 2: "two", 3: "three", 4: "four", 5: "five", 6: "six", 7: "seven",
	8: "eight", 9: "nine", 10: "ten", 11: "jack", 12: "queen", 13: "king",
}

// ParseLabel converts a detector label into a card.
func ParseLabel(label string) (poker.Card, error) {
	l := strings.ToUpper(strings.TrimSpace(label))
	if len(l) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	suit, ok := suits[l[len(l)-1]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown suit in %q", ErrInvalidLabel, label)
	}
	rank, ok := ranks[l[:len(l)-1]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown rank in %q", ErrInvalidLabel, label)
	}
	card, err := poker.MakeCard(suit, rank)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLabel, err)
	}
	return card, nil
}

// ParseLabels parses every label; the first bad one aborts.
func ParseLabels(labels []string) ([]poker.Card, error) {
	out := make([]poker.Card, 0, len(labels))
	for _, l := range labels {
		c, err := ParseLabel(l)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Describe returns a short name for the player's current made hand, e.g.
// "a pair of aces". It returns "" when no description is available: for
// unparseable labels and for the six-card turn position, which the
// evaluator does not describe.
func Describe(hole, board []string) string {
	all := append(append([]string{}, hole...), board...)
	cs, err := ParseLabels(all)
	if err != nil {
		return ""
	}
	switch len(cs) {
	case 2:
		return describeHole(cs[0], cs[1])
	case 5, 7:
		desc, err := poker.Describe(cs)
		if err != nil {
			return ""
		}
		return strings.ToLower(desc)
	}
	return ""
}

func describeHole(a, b poker.Card) string {
	if a.Rank() == b.Rank() {
		return "a pocket pair of " + plural(rankNames[a.Rank()])
	}
	kind := "offsuit"
	if a.Suit() == b.Suit() {
		kind = "suited"
	}
	return fmt.Sprintf("%s-%s %s", rankNames[a.Rank()], rankNames[b.Rank()], kind)
}

func plural(name string) string {
	if name == "six" {
		return "sixes"
	}
	return name + "s"
}
