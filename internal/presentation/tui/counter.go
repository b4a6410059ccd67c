package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/composable/examples/counter"
)

// CounterHelp documents the interactive counter commands, in markdown.
const CounterHelp = `# Counter

| Key | Action |
|-----|--------|
| ` + "`+`" + ` | increment |
| ` + "`-`" + ` | decrement |
| ` + "`h`" + ` | show or hide the count |
| ` + "`t`" + ` | start or stop the timer |
| ` + "`f`" + ` | fetch a fact about the count |
| ` + "`r`" + ` | reset |
| ` + "`q`" + ` | quit |

Any registered action name, or a JSON action request, is accepted too.
`

// RenderCounter draws one line describing s using profile p.
func RenderCounter(p termenv.Profile, s counter.State) string {
	var b strings.Builder

	count := p.String("hidden").Faint().String()
	if s.IsDisplayingCount {
		count = p.String(fmt.Sprint(s.Count)).Bold().Foreground(p.Color("#818cf8")).String()
	}
	fmt.Fprintf(&b, "Count: %s", count)

	timer := p.String("off").Faint().String()
	if s.IsTimerOn {
		timer = p.String("on").Foreground(p.Color("#22c55e")).String()
	}
	fmt.Fprintf(&b, "  Timer: %s", timer)

	switch {
	case s.IsLoadingFact:
		fmt.Fprint(&b, "  Fact: ...")
	case s.FactError != "":
		fmt.Fprintf(&b, "  Fact: %s", p.String(s.FactError).Foreground(p.Color("#ef4444")))
	case s.Fact != "":
		fmt.Fprintf(&b, "  Fact: %s", p.String(s.Fact).Italic())
	}
	return b.String()
}
