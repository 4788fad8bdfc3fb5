package shell

import (
	"bytes"
	"sync"
)

// LimitedBuffer keeps the first max bytes written to it and silently drops
// the rest. Writes never fail, so a chatty process is not killed by a broken
// pipe before its exit status is known.
type LimitedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	max       int64
	discarded int64
}

func NewLimitedBuffer(max int64) *LimitedBuffer {
	return &LimitedBuffer{max: max}
}

func (b *LimitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	if b.max > 0 {
		room := b.max - int64(b.buf.Len())
		if room <= 0 {
			b.discarded += int64(n)
			return n, nil
		}
		if int64(n) > room {
			b.discarded += int64(n) - room
			p = p[:room]
		}
	}
	b.buf.Write(p)
	return n, nil
}

func (b *LimitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *LimitedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *LimitedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.discarded > 0
}
