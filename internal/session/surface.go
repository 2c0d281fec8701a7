package session

import "sync"

// EditorSurface is the capability handle for the text-editing surface
// that owns the live buffer. The surface belongs to the UI layer for
// its mounted lifetime; the store only reads and writes through the
// handle between Bind and Release and never assumes it outlives the
// mount.
type EditorSurface interface {
	// Value returns the current buffer text.
	Value() string
	// SetValue replaces the buffer text.
	SetValue(text string)
}

// Buffer is an in-memory EditorSurface. Server-hosted sessions use it
// as the stand-in for the browser's editor: the API writes into it on
// buffer updates and the store reads it on Run.
type Buffer struct {
	mu   sync.Mutex
	text string
}

// NewBuffer creates a buffer seeded with the given text.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text}
}

func (b *Buffer) Value() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *Buffer) SetValue(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
}
