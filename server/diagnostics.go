package server

import (
	"io"
	"sync"
)

// lineWriter writes whole lines to w, one at a time, and flushes buffered writers
// after each line. *os.File writes are unbuffered so they need no flush.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: w}
}

func (l *lineWriter) Println(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := io.WriteString(l.w, line+"\n"); err != nil {
		return err
	}
	if f, ok := l.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
