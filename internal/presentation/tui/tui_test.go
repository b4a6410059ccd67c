package tui

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/composable/examples/counter"
)

func TestRenderCounter(t *testing.T) {
	tests := []struct {
		name  string
		state counter.State
		want  string
	}{
		{"initial", counter.NewState(), "Count: 0  Timer: off"},
		{"hidden", counter.State{Count: 3}, "Count: hidden  Timer: off"},
		{"timer", counter.State{Count: 2, IsDisplayingCount: true, IsTimerOn: true}, "Count: 2  Timer: on"},
		{"loading", counter.State{IsDisplayingCount: true, IsLoadingFact: true}, "Count: 0  Timer: off  Fact: ..."},
		{"fact", counter.State{Count: 1, IsDisplayingCount: true, Fact: "1 is a number."}, "Count: 1  Timer: off  Fact: 1 is a number."},
		{"error", counter.State{IsDisplayingCount: true, FactError: "offline"}, "Count: 0  Timer: off  Fact: offline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderCounter(termenv.Ascii, tt.state))
		})
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.Contains(t, buf.String(), `|_|`)
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer(80)(CounterHelp)
	require.NoError(t, err)
	assert.Contains(t, out, "increment")
}
