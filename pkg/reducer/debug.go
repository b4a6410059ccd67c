package reducer

import (
	"context"
	"log/slog"

	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/effect"
	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Diff renders a unified diff between the dumps of two values. It returns an
// empty string when they dump identically.
func Diff(before, after any) string {
	a, b := dumper.Sdump(before), dumper.Sdump(after)
	if a == b {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "before",
		ToFile:   "after",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

// LogChanges wraps r and logs every action it receives together with the state
// diff it caused, at debug level.
func LogChanges[S, A any](r Reducer[S, A], logger *slog.Logger) Reducer[S, A] {
	return Func[S, A](func(state S, action A) (S, effect.Effect[A]) {
		next, e := r.Reduce(state, action)
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return next, e
		}
		diff := Diff(state, next)
		if diff == "" {
			logger.Debug("received action", "action", domain.ActionName(action), "state", "unchanged")
			return next, e
		}
		logger.Debug("received action", "action", domain.ActionName(action), "diff", diff)
		return next, e
	})
}
