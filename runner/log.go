package runner

import (
	"bytes"
	"io"
	"sync"
)

// lineLog collects the output of a child process line by line, optionally
// echoing it as it arrives.
type lineLog struct {
	lock  sync.Mutex
	lines []string
	buf   bytes.Buffer
	echo  io.Writer
}

func (l *lineLog) Write(p []byte) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.echo != nil {
		l.echo.Write(p)
	}
	l.buf.Write(p)
	for {
		i := bytes.IndexByte(l.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		l.lines = append(l.lines, string(l.buf.Next(i+1)))
	}
	return len(p), nil
}

// add appends a complete line that did not come from a child.
func (l *lineLog) add(line string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.lines = append(l.lines, line)
}

// flush terminates a trailing partial line.
func (l *lineLog) flush() {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.buf.Len() > 0 {
		l.lines = append(l.lines, l.buf.String()+"\n")
		l.buf.Reset()
	}
}

func (l *lineLog) get() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string(nil), l.lines...)
}
