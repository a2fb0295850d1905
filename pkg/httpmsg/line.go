// ABOUTME: Line reading and C-style prefix integer parsing shared by the parsers
// ABOUTME: Lines end in LF; a CR directly before the LF is tolerated and stripped

package httpmsg

import (
	"bufio"
	"io"
	"strings"
)

// readLine reads one LF-terminated line, stripping the terminator and at
// most one CR directly before it. A final unterminated line before EOF is
// returned as a line; EOF with no data reports io.EOF.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return line, nil
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// atoiPrefix parses a leading integer the way C atoi does: optional
// whitespace, optional sign, then digits until the first non-digit.
// No digits yields 0. The protocol version and status code fields rely on
// this tolerance ("1.1" after "HTTP/1." parses as 1).
func atoiPrefix(s string) int {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if neg {
		return -n
	}
	return n
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
