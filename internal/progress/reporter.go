package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides progress feedback during long catalogue jobs such as
// imports and index rebuilds. Implementations are safe for concurrent use.
type Reporter interface {
	Start(total int)
	Update(current int, message string)
	Finish()
}

// NewReporter returns a CIReporter when the CI environment variable is set
// and a TerminalReporter otherwise. Output goes to w (stderr when nil).
func NewReporter(description string, w io.Writer) Reporter {
	if w == nil {
		w = os.Stderr
	}
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{description: description, w: w}
	}
	return &TerminalReporter{description: description, w: w}
}

// TerminalReporter displays a progress bar in the terminal.
type TerminalReporter struct {
	description string
	w           io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(r.description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		r.bar.Describe(message)
		_ = r.bar.Set(current)
	}
}

func (r *TerminalReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// CIReporter prints line-by-line progress suitable for CI logs.
type CIReporter struct {
	description string
	w           io.Writer

	mu    sync.Mutex
	total int
}

func (r *CIReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
	fmt.Fprintf(r.w, "%s: %d item(s)\n", r.description, total)
}

func (r *CIReporter) Update(current int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "[%d/%d] %s\n", current, r.total, message)
}

func (r *CIReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s: done\n", r.description)
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(int)          {}
func (Nop) Update(int, string) {}
func (Nop) Finish()            {}
