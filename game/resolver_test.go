package game

import (
	"encoding/json"
	"testing"

	"github.com/beka-birhanu/profesores-api/board"
	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTopology() board.Topology {
	return board.New(&dmn.Board{
		Size: 30,
		Hazards: []dmn.Hazard{
			{Head: 10, Tail: 2},
			{Head: 17, Tail: 5, Professor: "Huanca", Quiz: &dmn.Quiz{
				Prompt:  "2+2",
				Options: []dmn.Option{{Label: "A", Text: "4"}, {Label: "B", Text: "5"}},
				Correct: "A",
			}},
		},
		Shortcuts: []dmn.Shortcut{
			{Bottom: 4, Top: 12},
			{Bottom: 25, Top: 30},
		},
	})
}

func TestResolve(t *testing.T) {
	topo := testTopology()

	t.Run("plain landing", func(t *testing.T) {
		o := Resolve(topo, 0, 3)
		assert.Equal(t, OutcomeMoved, o.Kind)
		assert.Equal(t, 3, o.LandingPosition)
		assert.Equal(t, 3, o.FinalPosition)
		assert.Equal(t, EventNone, o.Event)
		assert.False(t, o.RequiresQuizAnswer())
	})

	t.Run("hazard without quiz drops immediately", func(t *testing.T) {
		o := Resolve(topo, 7, 3)
		assert.Equal(t, OutcomeMoved, o.Kind)
		assert.Equal(t, 10, o.LandingPosition)
		assert.Equal(t, 2, o.FinalPosition)
		assert.Equal(t, EventHazard, o.Event)
		assert.Nil(t, o.Quiz)
	})

	t.Run("hazard with quiz parks the player", func(t *testing.T) {
		o := Resolve(topo, 12, 5)
		assert.Equal(t, OutcomeQuizPending, o.Kind)
		assert.True(t, o.RequiresQuizAnswer())
		assert.Equal(t, 17, o.FinalPosition)
		require.NotNil(t, o.Quiz)
		assert.Equal(t, "Huanca", o.Quiz.Professor)
		assert.Equal(t, "2+2", o.Quiz.Equation)
		assert.Len(t, o.Quiz.Options, 2)
	})

	t.Run("shortcut climbs", func(t *testing.T) {
		o := Resolve(topo, 1, 3)
		assert.Equal(t, OutcomeMoved, o.Kind)
		assert.Equal(t, 12, o.FinalPosition)
		assert.Equal(t, EventShortcut, o.Event)
	})

	t.Run("shortcut onto the last tile wins", func(t *testing.T) {
		o := Resolve(topo, 22, 3)
		assert.Equal(t, OutcomeWon, o.Kind)
		assert.True(t, o.IsWinner())
		assert.Equal(t, 30, o.FinalPosition)
	})

	t.Run("exact landing wins", func(t *testing.T) {
		o := Resolve(topo, 26, 4)
		assert.Equal(t, OutcomeWon, o.Kind)
		assert.Equal(t, 30, o.FinalPosition)
	})
}

func TestResolveBounce(t *testing.T) {
	topo := testTopology()
	size := topo.Size()

	for p := size - 6; p <= size; p++ {
		for d := 1; d <= 6; d++ {
			if p+d <= size {
				continue
			}
			o := Resolve(topo, p, d)
			assert.Equal(t, OutcomeBounce, o.Kind, "from %d roll %d", p, d)
			assert.Equal(t, p, o.FinalPosition, "from %d roll %d", p, d)
			assert.Equal(t, EventNone, o.Event)
			assert.False(t, o.IsWinner())
		}
	}
}

func TestResolveAnswer(t *testing.T) {
	topo := testTopology()

	t.Run("correct answer stays", func(t *testing.T) {
		o, ok := resolveAnswer(topo, 17, "A")
		assert.True(t, ok)
		assert.Equal(t, 17, o.FinalPosition)
		assert.Equal(t, OutcomeMoved, o.Kind)
	})

	t.Run("wrong answer drops to the tail", func(t *testing.T) {
		o, ok := resolveAnswer(topo, 17, "B")
		assert.False(t, ok)
		assert.Equal(t, 5, o.FinalPosition)
		assert.Equal(t, EventHazard, o.Event)
	})
}

func TestMoveOutcomeJSONHidesQuiz(t *testing.T) {
	o := Resolve(testTopology(), 12, 5)
	require.NotNil(t, o.Quiz)

	raw, err := json.Marshal(o)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "quiz-pending", got["kind"])
	assert.Equal(t, true, got["requiresQuizAnswer"])
	assert.Equal(t, float64(17), got["toPosition"])
	assert.Equal(t, "Profesor", got["specialEvent"])
	assert.NotContains(t, got, "quiz")
	assert.NotContains(t, string(raw), "2+2")
}
