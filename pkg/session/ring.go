package session

import "strings"

// RingBuffer keeps the most recent lines appended to it, dropping from the
// front once capacity is reached. It is not safe for concurrent use; Session
// guards it.
type RingBuffer struct {
	lines []string
	start int
	size  int
}

// NewRingBuffer creates a buffer holding at most capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{lines: make([]string, capacity)}
}

// Append adds one line.
func (r *RingBuffer) Append(line string) {
	capacity := len(r.lines)
	if r.size < capacity {
		r.lines[(r.start+r.size)%capacity] = line
		r.size++
		return
	}
	r.lines[r.start] = line
	r.start = (r.start + 1) % capacity
}

// AppendText splits text on line breaks and appends every line. A trailing
// newline does not produce an empty line.
func (r *RingBuffer) AppendText(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		r.Append(line)
	}
}

// Len returns the number of buffered lines.
func (r *RingBuffer) Len() int { return r.size }

// Tail returns up to the last n lines, oldest first.
func (r *RingBuffer) Tail(n int) []string {
	if n <= 0 || r.size == 0 {
		return nil
	}
	if n > r.size {
		n = r.size
	}
	out := make([]string, 0, n)
	capacity := len(r.lines)
	for i := r.size - n; i < r.size; i++ {
		out = append(out, r.lines[(r.start+i)%capacity])
	}
	return out
}
