package dmn

import "github.com/google/uuid"

// DefaultBoardSize is the track length used when none is configured.
const DefaultBoardSize = 100

// Board is the fixed layout of one game. It never changes after creation.
type Board struct {
	GameID    uuid.UUID  `bson:"gameId" json:"gameId"`
	Size      int        `bson:"size" json:"size"`
	Hazards   []Hazard   `bson:"hazards" json:"hazards"`
	Shortcuts []Shortcut `bson:"shortcuts" json:"shortcuts"`
}

// Hazard drops a player from Head to Tail, optionally after a failed quiz.
type Hazard struct {
	Head      int    `bson:"head" json:"head"`
	Tail      int    `bson:"tail" json:"tail"`
	Professor string `bson:"professor" json:"professor"`
	Quiz      *Quiz  `bson:"quiz,omitempty" json:"quiz,omitempty"`
}

// Shortcut lifts a player from Bottom to Top.
type Shortcut struct {
	Bottom int    `bson:"bottom" json:"bottom"`
	Top    int    `bson:"top" json:"top"`
	Bully  string `bson:"bully" json:"bully"`
}

// Quiz is the question a professor asks on a hazard tile.
type Quiz struct {
	Prompt  string   `bson:"prompt" json:"prompt"`
	Options []Option `bson:"options" json:"options"`
	Correct string   `bson:"correct" json:"correct"`
}

// Option is one labeled answer of a quiz.
type Option struct {
	Label string `bson:"label" json:"label"`
	Text  string `bson:"text" json:"text"`
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	c := *b
	c.Shortcuts = append([]Shortcut(nil), b.Shortcuts...)
	c.Hazards = make([]Hazard, len(b.Hazards))
	for i, h := range b.Hazards {
		if h.Quiz != nil {
			q := *h.Quiz
			q.Options = append([]Option(nil), h.Quiz.Options...)
			h.Quiz = &q
		}
		c.Hazards[i] = h
	}
	return &c
}
