package sink

import "github.com/ehrlich-b/nanolog/internal/constants"

// truncationMarker is appended once a line overflows the hard cap, per
// spec.md §7's truncated-with-marker resolution to the line-too-large
// error kind.
var truncationMarker = []byte("…<truncated>")

// Scratch is a bounded, resettable byte buffer a decoder renders one log
// line into. It grows on demand up to ScratchHardCap and then truncates
// any further writes, so one runaway decoder can never force an unbounded
// allocation on the consumer's hot path — the resolution to the "growth
// vs. pre-allocated cap" design question, landing on grow-then-truncate.
type Scratch struct {
	buf       []byte
	truncated bool
	cap       int
}

// NewScratch creates a Scratch with the package's default initial capacity
// and hard cap.
func NewScratch() *Scratch {
	return &Scratch{
		buf: make([]byte, 0, constants.ScratchInitialCapacity),
		cap: constants.ScratchHardCap,
	}
}

// Reset empties the buffer for reuse, keeping its backing array.
func (s *Scratch) Reset() {
	s.buf = s.buf[:0]
	s.truncated = false
}

// WriteBytes appends p, growing the buffer (up to the hard cap) as
// needed. Once the cap is hit, further bytes are dropped and a
// "…<truncated>" marker is appended in whatever room remains; Truncated
// reports true for the remainder of this line. Implements wire.TextWriter.
func (s *Scratch) WriteBytes(p []byte) {
	if s.truncated {
		return
	}
	room := s.cap - len(s.buf)
	if room <= 0 {
		s.truncate()
		return
	}
	if len(p) > room {
		markerRoom := room - len(truncationMarker)
		if markerRoom < 0 {
			markerRoom = 0
		}
		s.buf = append(s.buf, p[:markerRoom]...)
		s.truncate()
		return
	}
	s.buf = append(s.buf, p...)
}

// truncate marks the line as overflowed and appends as much of the
// truncation marker as still fits in the remaining cap headroom.
func (s *Scratch) truncate() {
	s.truncated = true
	room := s.cap - len(s.buf)
	switch {
	case room >= len(truncationMarker):
		s.buf = append(s.buf, truncationMarker...)
	case room > 0:
		s.buf = append(s.buf, truncationMarker[:room]...)
	}
}

// WriteByte appends a single byte, honoring the same cap as WriteBytes.
func (s *Scratch) WriteByte(b byte) error {
	s.WriteBytes([]byte{b})
	return nil
}

// WriteString appends a string, honoring the same cap as WriteBytes.
func (s *Scratch) WriteString(str string) {
	s.WriteBytes([]byte(str))
}

// Bytes returns the buffer's current contents. The slice is only valid
// until the next Reset.
func (s *Scratch) Bytes() []byte {
	return s.buf
}

// Len returns the number of bytes currently staged.
func (s *Scratch) Len() int {
	return len(s.buf)
}

// Truncated reports whether the current line overflowed the hard cap.
func (s *Scratch) Truncated() bool {
	return s.truncated
}
