package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/aretw0/chatsim/pkg/ports"
)

// Runner connects a conversation to line-based IO.
type Runner struct {
	Input        io.Reader
	Output       io.Writer
	Renderer     ContentRenderer
	Logger       *slog.Logger
	MaxInputSize int
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner on Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:        os.Stdin,
		Output:       os.Stdout,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxInputSize: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run prints the conversation and feeds typed lines into it until /quit,
// end of input, a closed updates channel or ctx cancellation.
// updates may be nil; the snapshot is also refreshed after every line.
func (r *Runner) Run(ctx context.Context, conv ports.Conversation, updates <-chan domain.Snapshot) error {
	printer := NewPrinter(r.Output, r.Renderer)
	if err := printer.Print(conv.Snapshot()); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.Input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			r.Logger.Warn("input closed", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := printer.Print(snap); err != nil {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := r.handle(ctx, conv, printer, ParseLine(line))
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			if err := printer.Print(conv.Snapshot()); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) handle(ctx context.Context, conv ports.Conversation, printer *Printer, in Input) (bool, error) {
	var intent *domain.Intent
	var err error

	switch in.Kind {
	case InputQuit:
		return true, nil
	case InputHelp:
		fmt.Fprint(r.Output, usage)
	case InputPress:
		el, ok := printer.Button(in.Index)
		if !ok {
			fmt.Fprintf(r.Output, "No button %d.\n", in.Index)
			return false, nil
		}
		intent, err = conv.Dispatch(ctx, el.Action)
	case InputClick:
		intent, err = conv.Dispatch(ctx, in.Value)
	case InputSimulate:
		err = conv.SimulateConnect(ctx, in.Value)
	case InputReturn:
		err = conv.ObserveReturn(ctx, in.IDs)
	case InputAppFirst:
		intent, err = conv.TryAppFirst(ctx)
	case InputText:
		text, serr := SanitizeInputWithLimit(in.Value, r.MaxInputSize)
		if serr != nil {
			fmt.Fprintf(r.Output, "⚠ %v\n", serr)
			return false, nil
		}
		err = conv.Send(ctx, text)
	}
	if err != nil {
		return false, err
	}

	if intent != nil {
		fmt.Fprintf(r.Output, "→ navigate: %s\n", intent.URL())
	}
	return false, nil
}
