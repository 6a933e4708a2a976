package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fwojciec/docsync/analyze"
	"github.com/fwojciec/docsync/chroma"
	"github.com/fwojciec/docsync/gitdiff"
	"github.com/fwojciec/docsync/pipeline"
	"github.com/fwojciec/docsync/plan"
)

// ErrNoChanges is returned when the diff contains no changes to plan for.
var ErrNoChanges = errors.New("no changes to plan for")

// App encapsulates the application logic for testing.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Runner *pipeline.Runner
}

// Run reads a unified diff from stdin and writes the planned documentation
// tasks as JSON.
func (a *App) Run(ctx context.Context) error {
	data, err := io.ReadAll(a.Stdin)
	if err != nil {
		return err
	}

	tasks, err := a.Runner.Run(ctx, string(data))
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return ErrNoChanges
	}

	enc := json.NewEncoder(a.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}

func main() {
	// Check if stdin is a pipe (not a terminal)
	stat, err := os.Stdin.Stat()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error checking stdin:", err)
		os.Exit(1)
	}
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: git diff | docsync")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := &App{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Runner: pipeline.NewRunner(
			gitdiff.NewParser(),
			analyze.NewAnalyzer(chroma.NewDetector()),
			plan.NewPlanner(),
		),
	}

	if err := app.Run(ctx); err != nil {
		if errors.Is(err, ErrNoChanges) {
			fmt.Fprintln(os.Stderr, "No documentation tasks warranted.")
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
