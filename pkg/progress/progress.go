// Package progress shows terminal progress for long comparisons.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/pterm/pterm"
)

// Indicator reports progress of a run over a known or unknown number of
// steps. Implementations are safe for concurrent use.
type Indicator interface {
	Start(message string) error
	// Step records one finished unit of work.
	Step(label string)
	Success(message string)
	Failure(message string)
	Stop()
}

// Config controls indicators.
type Config struct {
	Enabled bool
	// Writer receives the output; nil means pterm's default.
	Writer io.Writer
}

// New returns a bar when total is known and a spinner otherwise. A disabled
// config yields an indicator that prints nothing.
func New(cfg Config, total int) Indicator {
	if !cfg.Enabled {
		return Noop{}
	}
	if total > 0 {
		return &Bar{config: cfg, total: total}
	}
	return &Spinner{config: cfg}
}

// Noop discards everything.
type Noop struct{}

func (Noop) Start(string) error { return nil }
func (Noop) Step(string)        {}
func (Noop) Success(string)     {}
func (Noop) Failure(string)     {}
func (Noop) Stop()              {}

// Spinner implements a spinner progress indicator.
type Spinner struct {
	config  Config
	spinner *pterm.SpinnerPrinter
	steps   int
	mu      sync.Mutex
}

// Start starts the spinner with a message.
func (s *Spinner) Start(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spinner != nil {
		return fmt.Errorf("spinner already active")
	}
	printer := pterm.DefaultSpinner
	if s.config.Writer != nil {
		printer = *printer.WithWriter(s.config.Writer)
	}
	sp, err := printer.Start(message)
	if err != nil {
		return fmt.Errorf("failed to start spinner: %w", err)
	}
	s.spinner = sp
	return nil
}

func (s *Spinner) Step(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.steps++
	if s.spinner != nil {
		s.spinner.UpdateText(fmt.Sprintf("%s (%d done)", label, s.steps))
	}
}

func (s *Spinner) Success(message string) {
	s.finish(func(sp *pterm.SpinnerPrinter) { sp.Success(message) })
}

func (s *Spinner) Failure(message string) {
	s.finish(func(sp *pterm.SpinnerPrinter) { sp.Fail(message) })
}

func (s *Spinner) Stop() {
	s.finish(func(sp *pterm.SpinnerPrinter) { _ = sp.Stop() })
}

func (s *Spinner) finish(fn func(*pterm.SpinnerPrinter)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spinner == nil {
		return
	}
	fn(s.spinner)
	s.spinner = nil
}

// Bar implements a progress bar over a fixed number of steps.
type Bar struct {
	config Config
	total  int
	done   int
	bar    *pterm.ProgressbarPrinter
	mu     sync.Mutex
}

// Start starts the progress bar.
func (b *Bar) Start(message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		return fmt.Errorf("progress bar already active")
	}
	printer := pterm.DefaultProgressbar.WithTotal(b.total).WithTitle(message)
	if b.config.Writer != nil {
		printer = printer.WithWriter(b.config.Writer)
	}
	bar, err := printer.Start()
	if err != nil {
		return fmt.Errorf("failed to start progress bar: %w", err)
	}
	b.bar = bar
	return nil
}

func (b *Bar) Step(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done++
	if b.bar == nil {
		return
	}
	b.bar.UpdateTitle(label)
	b.bar.Increment()
}

// Done returns the number of recorded steps.
func (b *Bar) Done() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

func (b *Bar) Success(message string) {
	if b.stop() && message != "" {
		pterm.Success.Println(message)
	}
}

func (b *Bar) Failure(message string) {
	if b.stop() && message != "" {
		pterm.Error.Println(message)
	}
}

func (b *Bar) Stop() {
	b.stop()
}

func (b *Bar) stop() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil {
		return false
	}
	_, _ = b.bar.Stop()
	b.bar = nil
	return true
}
