package drafter

import "sync"

// TextInput is an in-memory Controls for non-interactive callers
type TextInput struct {
	mu    sync.Mutex
	input string
	busy  bool
	flips int
}

// NewTextInput returns controls holding input
func NewTextInput(input string) *TextInput {
	return &TextInput{input: input}
}

func (t *TextInput) Input() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input
}

func (t *TextInput) ClearInput() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input = ""
}

func (t *TextInput) SetBusy(busy bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.busy = busy
	t.flips++
}

// Busy reports whether a submission currently holds the controls
func (t *TextInput) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// BusyChanges counts SetBusy calls
func (t *TextInput) BusyChanges() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flips
}
