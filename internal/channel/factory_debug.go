//go:build debug

package channel

// New creates a channel for queued work.
// Debug builds ignore size and hand off synchronously so producers feel backpressure at once.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
