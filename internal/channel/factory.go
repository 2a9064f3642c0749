//go:build !debug

package channel

// New creates a channel for queued work.
// Production builds buffer up to size items.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
