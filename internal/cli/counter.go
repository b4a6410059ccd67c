package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/aretw0/composable"
	"github.com/aretw0/composable/examples/counter"
	"github.com/aretw0/composable/internal/logging"
	"github.com/aretw0/composable/internal/presentation/tui"
	"github.com/aretw0/composable/pkg/domain"
	"github.com/aretw0/composable/pkg/store"
)

// CounterOptions configures RunCounter.
type CounterOptions struct {
	In     io.Reader
	Out    io.Writer
	Deps   Deps
	Logger *slog.Logger
	// Quiet skips the banner and help.
	Quiet bool
}

var counterKeys = map[string]string{
	"+": "increment",
	"-": "decrement",
	"h": "toggle_display",
	"t": "toggle_timer",
	"f": "fact",
	"r": "reset",
}

// RunCounter drives a counter from line-based input, rendering every state
// change. It returns the last state once the input ends, "q" is read or ctx
// is done.
func RunCounter(ctx context.Context, opts CounterOptions) (counter.State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Deps.Clock == nil {
		opts.Deps = LiveDeps()
	}

	out := termenv.NewOutput(opts.Out)
	if !opts.Quiet {
		tui.PrintBanner(opts.Out, composable.Version)
		if help, err := tui.NewRenderer(80)(tui.CounterHelp); err == nil {
			fmt.Fprint(opts.Out, help)
		}
	}

	s := store.New(counter.NewState(), counter.New(counter.Dependencies{
		Clock: opts.Deps.Clock,
		Fact:  counter.OfflineFacts(opts.Deps.Random),
	}), store.WithID("counter"), store.WithContext(ctx), store.WithLogger(opts.Logger))
	defer s.Close()
	actions := counter.Actions()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		printer = func(format string, args ...any) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(opts.Out, format, args...)
		}
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for st := range s.Updates(ctx) {
			printer("%s\n", tui.RenderCounter(out.Profile, st))
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(opts.In)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	finish := func() (counter.State, error) {
		cancel()
		wg.Wait()
		return s.State(), nil
	}

	for {
		select {
		case <-ctx.Done():
			return finish()
		case line, ok := <-lines:
			if !ok {
				return finish()
			}
			switch line {
			case "":
				continue
			case "q", "quit", "exit":
				return finish()
			}

			a, err := decodeLine(actions.Decode, actions.DecodeJSON, line)
			if err != nil {
				if errors.Is(err, domain.ErrUnknownAction) {
					printer(">>> Unknown command %q. Try one of: + - h t f r q\n", line)
				} else {
					printer(">>> %v\n", err)
				}
				continue
			}
			s.Send(a)
		}
	}
}

func decodeLine(
	decode func(domain.ActionRequest) (counter.Action, error),
	decodeJSON func([]byte) (counter.Action, error),
	line string,
) (counter.Action, error) {
	if strings.HasPrefix(line, "{") {
		return decodeJSON([]byte(line))
	}
	if name, ok := counterKeys[line]; ok {
		line = name
	}
	return decode(domain.ActionRequest{Type: line})
}
