/*
Package board builds the fixed layout of a game and answers topology questions about it.

Layouts are generated from a Catalog: a table of hazards (professors, who may ask a quiz
before dropping a player) and shortcuts (bullies, who carry a player forward). The catalog is
plain data so it can be swapped for a smaller one in tests or loaded from a YAML file.
*/
package board

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog errors.
var (
	ErrDuplicateHazard   = errors.New("two hazards share a head tile")
	ErrDuplicateShortcut = errors.New("two shortcuts share a bottom tile")
	ErrOverlappingTile   = errors.New("tile is both a hazard head and a shortcut bottom")
	ErrHazardDirection   = errors.New("hazard tail must be below its head")
	ErrShortcutDirection = errors.New("shortcut top must be above its bottom")
	ErrInvalidQuiz       = errors.New("quiz options are invalid")
	ErrTileOffTrack      = errors.New("tile must be on the track")
)

// Option is one labeled answer of a hazard quiz.
type Option struct {
	Label string `yaml:"label"`
	Text  string `yaml:"text"`
}

// HazardSpec describes a professor tile. A spec with an empty Prompt has no quiz and
// drops the player unconditionally.
type HazardSpec struct {
	Tile      int      `yaml:"tile"`
	Tail      int      `yaml:"tail"`
	Professor string   `yaml:"professor"`
	Prompt    string   `yaml:"prompt"`
	Options   []Option `yaml:"options"`
	Correct   string   `yaml:"correct"`
}

// ShortcutSpec describes a bully tile.
type ShortcutSpec struct {
	Tile  int    `yaml:"tile"`
	Top   int    `yaml:"top"`
	Bully string `yaml:"bully"`
}

// Catalog is the reference table boards are generated from.
type Catalog struct {
	Hazards   []HazardSpec   `yaml:"hazards"`
	Shortcuts []ShortcutSpec `yaml:"shortcuts"`
}

func abc(a, b, c string) []Option {
	return []Option{{Label: "A", Text: a}, {Label: "B", Text: b}, {Label: "C", Text: c}}
}

// DefaultCatalog returns the reference professors and bullies.
func DefaultCatalog() Catalog {
	return Catalog{
		Hazards: []HazardSpec{
			{Tile: 23, Tail: 4, Professor: "Huanca", Prompt: "5x-3=12", Options: abc("x=4", "x=3", "x=2"), Correct: "B"},
			{Tile: 30, Tail: 8, Professor: "Nancy", Prompt: "2x + 7 = 19", Options: abc("x=5", "x=6", "x=7"), Correct: "B"},
			{Tile: 33, Tail: 26, Professor: "Guerra", Prompt: "4x - 5 = 15", Options: abc("x=3", "x=4", "x=5"), Correct: "C"},
			{Tile: 40, Tail: 22, Professor: "Vladimir", Prompt: "x/2 + 3 = 9", Options: abc("x=10", "x=12", "x=14"), Correct: "B"},
			{Tile: 53, Tail: 49, Professor: "Infantas", Prompt: "10 - 2x = 4", Options: abc("x=2", "x=4", "x=3"), Correct: "C"},
			{Tile: 56, Tail: 36, Professor: "Melisa", Prompt: "3(x - 2) = 15", Options: abc("x=6", "x=7", "x=8"), Correct: "B"},
			{Tile: 64, Tail: 58, Professor: "Ulises", Prompt: "6x = 4x + 10", Options: abc("x=5", "x=4", "x=3"), Correct: "A"},
			{Tile: 89, Tail: 71, Professor: "Sapag", Prompt: "8x + 1 = 41", Options: abc("x=4", "x=5", "x=6"), Correct: "B"},
			{Tile: 94, Tail: 74, Professor: "Bojanic", Prompt: "x + 11 = 3x - 1", Options: abc("x=6", "x=5", "x=4"), Correct: "A"},
			{Tile: 99, Tail: 78, Professor: "Enrique", Prompt: "x/4 + 2 = 6", Options: abc("x=12", "x=16", "x=20"), Correct: "B"},
		},
		Shortcuts: []ShortcutSpec{
			{Tile: 6, Top: 14},
			{Tile: 13, Top: 28},
			{Tile: 32, Top: 50},
			{Tile: 42, Top: 60},
			{Tile: 54, Top: 69},
			{Tile: 65, Top: 86},
			{Tile: 84, Top: 96},
		},
	}
}

// LoadCatalog reads a YAML catalog file and validates it.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("decoding catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks that the catalog describes a deterministic single-step remap:
// one hazard per head, one shortcut per bottom, and no tile used by both.
func (c Catalog) Validate() error {
	heads := make(map[int]struct{}, len(c.Hazards))
	for _, h := range c.Hazards {
		if _, dup := heads[h.Tile]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateHazard, h.Tile)
		}
		heads[h.Tile] = struct{}{}

		if h.Tile < 1 {
			return fmt.Errorf("%w: %d", ErrTileOffTrack, h.Tile)
		}
		if h.Tail >= h.Tile || h.Tail < 0 {
			return fmt.Errorf("%w: %d -> %d", ErrHazardDirection, h.Tile, h.Tail)
		}
		if err := validateQuiz(h); err != nil {
			return err
		}
	}

	bottoms := make(map[int]struct{}, len(c.Shortcuts))
	for _, s := range c.Shortcuts {
		if _, dup := bottoms[s.Tile]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateShortcut, s.Tile)
		}
		if _, clash := heads[s.Tile]; clash {
			return fmt.Errorf("%w: %d", ErrOverlappingTile, s.Tile)
		}
		bottoms[s.Tile] = struct{}{}

		if s.Tile < 1 {
			return fmt.Errorf("%w: %d", ErrTileOffTrack, s.Tile)
		}
		if s.Top <= s.Tile {
			return fmt.Errorf("%w: %d -> %d", ErrShortcutDirection, s.Tile, s.Top)
		}
	}

	return nil
}

func validateQuiz(h HazardSpec) error {
	if h.Prompt == "" {
		return nil
	}

	labels := make(map[string]struct{}, len(h.Options))
	for _, o := range h.Options {
		if o.Label == "" {
			return fmt.Errorf("%w: empty label on tile %d", ErrInvalidQuiz, h.Tile)
		}
		if _, dup := labels[o.Label]; dup {
			return fmt.Errorf("%w: duplicate label %q on tile %d", ErrInvalidQuiz, o.Label, h.Tile)
		}
		labels[o.Label] = struct{}{}
	}

	if _, ok := labels[h.Correct]; !ok {
		return fmt.Errorf("%w: correct label %q missing on tile %d", ErrInvalidQuiz, h.Correct, h.Tile)
	}
	return nil
}
