package channel

import (
	"bytes"

	"github.com/arloliu/gstream/internal/queue"
)

// lineAssembler splits a byte stream into lines on '\n', dropping '\r'.
type lineAssembler struct {
	partial []byte
	lines   queue.Queue[string]
}

func newLineAssembler() *lineAssembler {
	return &lineAssembler{lines: queue.NewSliceQueue[string](4)}
}

func (a *lineAssembler) feed(p []byte) {
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			a.partial = append(a.partial, p...)
			return
		}

		a.partial = append(a.partial, p[:i]...)
		a.lines.Enqueue(string(bytes.ReplaceAll(a.partial, []byte{'\r'}, nil)))
		a.partial = a.partial[:0]
		p = p[i+1:]
	}
}

func (a *lineAssembler) next() (string, bool) {
	return a.lines.Dequeue()
}

func (a *lineAssembler) reset() {
	a.partial = a.partial[:0]
	a.lines.Reset()
}
