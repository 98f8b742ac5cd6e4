package game

import (
	"encoding/json"
	"fmt"

	"github.com/beka-birhanu/profesores-api/board"
)

// OutcomeKind tags the result of resolving one roll.
type OutcomeKind int

const (
	// OutcomeBounce: the roll overshoots the last tile, the player stays put.
	OutcomeBounce OutcomeKind = iota
	// OutcomeQuizPending: the player is parked on a professor waiting for an answer.
	OutcomeQuizPending
	// OutcomeMoved: the player ends on a tile short of the last one.
	OutcomeMoved
	// OutcomeWon: the player reaches the last tile.
	OutcomeWon
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBounce:
		return "bounce"
	case OutcomeQuizPending:
		return "quiz-pending"
	case OutcomeMoved:
		return "moved"
	case OutcomeWon:
		return "won"
	default:
		return "unknown"
	}
}

// SpecialEvent names the board feature a move hit.
type SpecialEvent string

const (
	EventNone     SpecialEvent = ""
	EventHazard   SpecialEvent = "Profesor"
	EventShortcut SpecialEvent = "Maton"
)

// MoveOutcome is the ephemeral result of one roll or one quiz answer.
type MoveOutcome struct {
	Kind            OutcomeKind
	DieValue        int
	FromPosition    int
	LandingPosition int
	FinalPosition   int
	Event           SpecialEvent
	Message         string

	// Quiz is revealed to the mover only and never serialized with the outcome.
	Quiz *QuizPrompt
}

// RequiresQuizAnswer reports whether turn advancement is suspended on a quiz.
func (o MoveOutcome) RequiresQuizAnswer() bool {
	return o.Kind == OutcomeQuizPending
}

// IsWinner reports whether the move ended the game.
func (o MoveOutcome) IsWinner() bool {
	return o.Kind == OutcomeWon
}

// MarshalJSON writes the group-visible projection of the outcome.
func (o MoveOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind               string       `json:"kind"`
		DiceValue          int          `json:"diceValue"`
		FromPosition       int          `json:"fromPosition"`
		ToPosition         int          `json:"toPosition"`
		FinalPosition      int          `json:"finalPosition"`
		SpecialEvent       SpecialEvent `json:"specialEvent,omitempty"`
		RequiresQuizAnswer bool         `json:"requiresQuizAnswer"`
		IsWinner           bool         `json:"isWinner"`
		Message            string       `json:"message"`
	}{
		Kind:               o.Kind.String(),
		DiceValue:          o.DieValue,
		FromPosition:       o.FromPosition,
		ToPosition:         o.LandingPosition,
		FinalPosition:      o.FinalPosition,
		SpecialEvent:       o.Event,
		RequiresQuizAnswer: o.RequiresQuizAnswer(),
		IsWinner:           o.IsWinner(),
		Message:            o.Message,
	})
}

// Resolve computes where a roll of die from position from ends on the board.
//
// The checks run in a fixed order: overshoot bounce, hazard (quiz or unconditional drop),
// shortcut, plain landing, and finally the win check on the resolved tile. A quiz-pending
// landing is never a win.
func Resolve(t board.Topology, from, die int) MoveOutcome {
	size := t.Size()
	o := MoveOutcome{
		DieValue:        die,
		FromPosition:    from,
		LandingPosition: from + die,
	}

	if o.LandingPosition > size {
		o.Kind = OutcomeBounce
		o.LandingPosition = from
		o.FinalPosition = from
		o.Message = "Roll exceeds board size, stay in place"
		return o
	}

	landing := o.LandingPosition
	if tail, ok := t.HazardDestination(landing); ok {
		o.Event = EventHazard
		if quiz, ok := t.QuizFor(landing); ok {
			o.Kind = OutcomeQuizPending
			o.FinalPosition = landing
			o.Quiz = newQuizPrompt(t.ProfessorAt(landing), landing, quiz)
			o.Message = fmt.Sprintf("You landed on professor %s!", t.ProfessorAt(landing))
			return o
		}
		o.FinalPosition = tail
		o.Message = fmt.Sprintf("Hit a professor! Moved from %d to %d", landing, tail)
	} else if top, ok := t.ShortcutDestination(landing); ok {
		o.Event = EventShortcut
		o.FinalPosition = top
		o.Message = fmt.Sprintf("Climbed with a bully! Moved from %d to %d", landing, top)
	} else {
		o.FinalPosition = landing
		o.Message = "Normal move"
	}

	if o.FinalPosition >= size {
		o.Kind = OutcomeWon
		o.Message = "You won!"
	} else {
		o.Kind = OutcomeMoved
	}
	return o
}

// resolveAnswer computes the outcome of answering the quiz parked on tile.
func resolveAnswer(t board.Topology, tile int, label string) (MoveOutcome, bool) {
	o := MoveOutcome{
		Kind:            OutcomeMoved,
		FromPosition:    tile,
		LandingPosition: tile,
		FinalPosition:   tile,
		Event:           EventHazard,
	}

	if t.CheckAnswer(tile, label) {
		o.Message = "Correct! You stay where you are."
		return o, true
	}

	if tail, ok := t.HazardDestination(tile); ok {
		o.FinalPosition = tail
	}
	o.Message = fmt.Sprintf("Wrong answer! Professor %s sends you to %d.", t.ProfessorAt(tile), o.FinalPosition)
	return o, false
}
