package modem

import (
	"bufio"
	"io"
	"strings"
)

// lineReader reassembles the modem's byte stream into newline-terminated
// lines. A trailing carriage return is stripped, so both "\r\n" and bare
// "\n" terminators yield the same line. Accumulation is bounded only by
// memory: a line is held until its terminator arrives, however long it
// grows.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// Next returns the next complete line with its terminator stripped. Bytes
// of a partial line pending when the stream ends are discarded: a line
// that never received its terminator is never delivered.
func (l *lineReader) Next() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}
