// Package expand substitutes ${NAME} and $(NAME) references in descriptor
// values.
package expand

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

func varInner(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

func blank(b byte) bool {
	return b == ' ' || b == '\t'
}

func closer(open byte) byte {
	if open == '{' {
		return '}'
	}
	return ')'
}

type Resolver func(name string) (value string, err error)

// Expand replaces every well-formed reference in s with the value returned by
// rvar. Blanks are allowed around the name inside the delimiters and the name
// may be empty. The result is not rescanned, so values containing references
// are copied as they are. A '$' that does not start a reference is kept.
func Expand(s string, rvar Resolver) (string, error) {
	return expand(bufio.NewReader(strings.NewReader(s)), rvar)
}

func expand(r *bufio.Reader, rvar Resolver) (string, error) {
	buf := &bytes.Buffer{}

	var expandErr error

	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", err
		}

		if b != '$' {
			buf.WriteByte(b)
			continue
		}

		p, err := r.Peek(1)
		if err != nil || (p[0] != '(' && p[0] != '{') {
			buf.WriteByte(b)
			continue
		}

		name, size, ok := scanRef(r)
		if !ok {
			// not a reference, the delimiter is emitted on the next iteration
			buf.WriteByte(b)
			continue
		}
		raw, _ := r.Peek(size)
		literal := string(raw)
		r.Discard(size)

		value, err := rvar(name)
		if err != nil {
			buf.WriteByte('$')
			buf.WriteString(literal)
			if expandErr == nil {
				expandErr = err
			}
			continue
		}
		buf.WriteString(value)
	}

	return buf.String(), expandErr
}

// scanRef looks ahead of the '$' for "(name)" or "{name}" without consuming
// input. It returns the name and the number of bytes the reference spans.
func scanRef(r *bufio.Reader) (string, int, bool) {
	for n := 2; ; n++ {
		peek, err := r.Peek(n)
		if len(peek) < n {
			return "", 0, false
		}
		end := closer(peek[0])
		c := peek[n-1]
		if c == end {
			name := strings.TrimSpace(string(peek[1 : n-1]))
			for i := 0; i < len(name); i++ {
				if !varInner(name[i]) {
					return "", 0, false
				}
			}
			return name, n, true
		}
		if !varInner(c) && !blank(c) {
			return "", 0, false
		}
		if err != nil {
			return "", 0, false
		}
	}
}
