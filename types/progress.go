package types

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// ExperimentOutput holds the status line of one experiment
type ExperimentOutput struct {
	mu        sync.Mutex
	printable string
}

// Set the output string (blocking)
func (o *ExperimentOutput) Set(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.printable = s
}

// Get the output string (blocking)
func (o *ExperimentOutput) Get() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.printable
}

// TerminalPrinter redraws one status line per experiment at a fixed interval
type TerminalPrinter struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	interval time.Duration
	names    []string
	outputs  map[string]*ExperimentOutput

	writer  *uilive.Writer
	writers []io.Writer
}

// NewTerminalPrinter creates a printer writing to out, one line per experiment name
func NewTerminalPrinter(ctx context.Context, out io.Writer, names []string, interval time.Duration) *TerminalPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	writer := uilive.New()
	writer.Out = out
	writers := make([]io.Writer, len(names))
	outputs := make(map[string]*ExperimentOutput, len(names))
	for i, name := range names {
		if i == 0 {
			writers[i] = writer
		} else {
			writers[i] = writer.Newline()
		}
		outputs[name] = &ExperimentOutput{printable: fmt.Sprintf("%s: pending", name)}
	}
	return &TerminalPrinter{
		ctx:      printerCtx,
		cancel:   cancel,
		done:     make(chan struct{}),
		interval: interval,
		names:    names,
		outputs:  outputs,
		writer:   writer,
		writers:  writers,
	}
}

// Progress returns the callback to plug into a ComparisonConfig
func (p *TerminalPrinter) Progress() Progress {
	return func(experiment string, m EpisodeMetrics) {
		out, ok := p.outputs[experiment]
		if !ok {
			return
		}
		out.Set(fmt.Sprintf("%s: episode %d, steps %d, reward %.3f, delta %.2e, epsilon %.3f",
			experiment, m.Episode, m.Steps, m.Reward, m.Delta, m.Epsilon))
	}
}

func (p *TerminalPrinter) Start() {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.ctx.Done():
				p.print()
				return
			case <-time.After(p.interval):
				p.print()
			}
		}
	}()
}

// Stop prints the final status and waits for the printer to exit
func (p *TerminalPrinter) Stop() {
	p.cancel()
	<-p.done
}

func (p *TerminalPrinter) print() {
	for i, name := range p.names {
		fmt.Fprint(p.writers[i], p.outputs[name].Get()+"\n")
	}
	p.writer.Flush()
}
