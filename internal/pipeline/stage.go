// Package pipeline implements the sales pipeline: the closed stage
// vocabulary, stage transitions and the board projection of opportunities.
package pipeline

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stage is a position in the sales pipeline.
type Stage int

// Pipeline stages in board order.
const (
	New Stage = iota
	Qualified
	Proposal
	Won
)

// Sentinel is the "no selection" entry of the move-to menu.
const Sentinel = "Mover a..."

// ErrUnknownStage is returned for stage names outside the vocabulary.
var ErrUnknownStage = errors.New("unknown stage")

var (
	stored  = [...]string{"NUEVO", "CALIFICADO", "PROPUESTA", "GANADO"}
	english = [...]string{"NEW", "QUALIFIED", "PROPOSAL", "WON"}
)

// Stages returns every stage in board order.
func Stages() []Stage {
	return []Stage{New, Qualified, Proposal, Won}
}

// Stored returns the canonical name written to the opportunities relation.
func (s Stage) Stored() string {
	if s < New || s > Won {
		return stored[New]
	}
	return stored[s]
}

func (s Stage) String() string {
	if s < New || s > Won {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return english[s]
}

// MarshalText encodes the stage by its English name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStage accepts the stored and the English name of a stage in any
// letter case. Surrounding whitespace is not trimmed: "GANADO " is unknown.
func ParseStage(raw string) (Stage, error) {
	upper := cases.Upper(language.Und).String(raw)
	for _, s := range Stages() {
		if upper == stored[s] || upper == english[s] {
			return s, nil
		}
	}
	return New, fmt.Errorf("%w: %q", ErrUnknownStage, raw)
}

// Normalize reads a stored stage value. Anything outside the vocabulary
// reads as New; the stored value itself is never rewritten.
func Normalize(raw string) Stage {
	s, err := ParseStage(raw)
	if err != nil {
		return New
	}
	return s
}

// IsSentinel reports whether target means "no stage selected".
func IsSentinel(target string) bool {
	return target == "" || target == Sentinel
}

// Targets returns the stages an opportunity in current can be moved to.
func Targets(current Stage) []Stage {
	out := make([]Stage, 0, len(stored)-1)
	for _, s := range Stages() {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}
