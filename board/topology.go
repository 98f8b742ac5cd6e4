package board

import (
	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
)

// Topology answers lookups about one board. Quiz lookup and validation live on the same
// interface as the tile remaps.
type Topology interface {
	// Size returns the track length.
	Size() int

	// HazardDestination returns the tail of the hazard whose head is tile.
	HazardDestination(tile int) (int, bool)

	// ShortcutDestination returns the top of the shortcut whose bottom is tile.
	ShortcutDestination(tile int) (int, bool)

	// ProfessorAt returns the name of the professor on a hazard tile.
	ProfessorAt(tile int) string

	// QuizFor returns the quiz bound to the hazard on tile, if any.
	QuizFor(tile int) (*dmn.Quiz, bool)

	// HasOption reports whether label is one of the options of the quiz on tile.
	HasOption(tile int, label string) bool

	// CheckAnswer reports whether label is the correct option of the quiz on tile.
	// The comparison is exact and case-sensitive.
	CheckAnswer(tile int, label string) bool
}

// Generator creates boards from a catalog.
type Generator struct {
	catalog Catalog
}

// NewGenerator validates the catalog and returns a generator bound to it.
func NewGenerator(c Catalog) (*Generator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Generator{catalog: c}, nil
}

// Generate lays out a board of the given size for a game. Catalog entries reaching past the
// last tile are left out. A size <= 0 falls back to the default size.
func (g *Generator) Generate(gameID uuid.UUID, size int) *dmn.Board {
	if size <= 0 {
		size = dmn.DefaultBoardSize
	}

	b := &dmn.Board{
		GameID:    gameID,
		Size:      size,
		Hazards:   make([]dmn.Hazard, 0, len(g.catalog.Hazards)),
		Shortcuts: make([]dmn.Shortcut, 0, len(g.catalog.Shortcuts)),
	}

	for _, h := range g.catalog.Hazards {
		if h.Tile > size {
			continue
		}
		hazard := dmn.Hazard{Head: h.Tile, Tail: h.Tail, Professor: h.Professor}
		if h.Prompt != "" {
			quiz := &dmn.Quiz{Prompt: h.Prompt, Correct: h.Correct}
			for _, o := range h.Options {
				quiz.Options = append(quiz.Options, dmn.Option{Label: o.Label, Text: o.Text})
			}
			hazard.Quiz = quiz
		}
		b.Hazards = append(b.Hazards, hazard)
	}

	for _, s := range g.catalog.Shortcuts {
		if s.Top > size {
			continue
		}
		b.Shortcuts = append(b.Shortcuts, dmn.Shortcut{Bottom: s.Tile, Top: s.Top, Bully: s.Bully})
	}

	return b
}

type topology struct {
	size      int
	hazards   map[int]dmn.Hazard
	shortcuts map[int]int
}

// New indexes a board for constant-time lookups. When two entries share a source tile the
// first one wins.
func New(b *dmn.Board) Topology {
	t := &topology{
		size:      b.Size,
		hazards:   make(map[int]dmn.Hazard, len(b.Hazards)),
		shortcuts: make(map[int]int, len(b.Shortcuts)),
	}
	for _, h := range b.Hazards {
		if _, ok := t.hazards[h.Head]; !ok {
			t.hazards[h.Head] = h
		}
	}
	for _, s := range b.Shortcuts {
		if _, ok := t.shortcuts[s.Bottom]; !ok {
			t.shortcuts[s.Bottom] = s.Top
		}
	}
	return t
}

func (t *topology) Size() int {
	return t.size
}

func (t *topology) HazardDestination(tile int) (int, bool) {
	h, ok := t.hazards[tile]
	return h.Tail, ok
}

func (t *topology) ShortcutDestination(tile int) (int, bool) {
	top, ok := t.shortcuts[tile]
	return top, ok
}

func (t *topology) ProfessorAt(tile int) string {
	return t.hazards[tile].Professor
}

func (t *topology) QuizFor(tile int) (*dmn.Quiz, bool) {
	h, ok := t.hazards[tile]
	if !ok || h.Quiz == nil {
		return nil, false
	}
	return h.Quiz, true
}

func (t *topology) HasOption(tile int, label string) bool {
	q, ok := t.QuizFor(tile)
	if !ok {
		return false
	}
	for _, o := range q.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}

func (t *topology) CheckAnswer(tile int, label string) bool {
	q, ok := t.QuizFor(tile)
	return ok && q.Correct == label
}
