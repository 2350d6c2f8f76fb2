package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames is the animation cycle. Frames render at a fixed width
// so the line never jitters.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is the inline progress indicator shown while a layout,
// evaluation or render pass runs. It animates on stderr so piped stdout
// (artifacts, CSV) stays clean, and it winds down on its own when the
// command context ends.
type Spinner struct {
	message string
	ctx     context.Context
	cancel  context.CancelFunc
	idle    chan struct{}
	stop    sync.Once
}

// newSpinner creates a spinner detached from any command context.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that stops when ctx ends,
// covering Ctrl-C during a long Graphviz placement.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		ctx:     ctx,
		cancel:  cancel,
		idle:    make(chan struct{}),
	}
}

// Start begins the animation. Call Stop (or one of its variants) before
// printing results.
func (s *Spinner) Start() {
	go func() {
		defer close(s.idle)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				glyph := spinnerFrames[frame%len(spinnerFrames)]
				fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(glyph), StyleDim.Render(s.message))
			}
		}
	}()
}

// Stop halts the animation and clears the line. Safe to call more than
// once; only the first call waits for the animation goroutine.
func (s *Spinner) Stop() {
	s.stop.Do(func() {
		s.cancel()
		<-s.idle
	})
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's context has ended, which
// includes cancellation of the parent command context.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// clearLine blanks the animation line. The width covers the glyph, the
// separating space and the message.
func (s *Spinner) clearLine() {
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}
