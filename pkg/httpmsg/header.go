// ABOUTME: Case-insensitive header map and header block collection
// ABOUTME: Names canonicalize to trimmed lowercase at insert; last write wins

package httpmsg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HeaderMap stores headers under trimmed, lowercased names. Lookups
// canonicalize the same way, so callers never see raw casing.
type HeaderMap map[string]string

// Set stores value under the canonical form of name, replacing any
// previous value. The value is trimmed of surrounding whitespace.
func (h HeaderMap) Set(name, value string) {
	h[canonicalName(name)] = strings.TrimSpace(value)
}

// Get returns the value stored under the canonical form of name.
func (h HeaderMap) Get(name string) (string, bool) {
	v, ok := h[canonicalName(name)]
	return v, ok
}

// Has reports whether a header with the canonical form of name exists.
func (h HeaderMap) Has(name string) bool {
	_, ok := h[canonicalName(name)]
	return ok
}

func canonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ReadHeaders collects header lines until a blank line or EOF and returns
// the declared content length alongside the collected headers. Lines
// without a colon are skipped. The content length is the last
// "content-length" value parsed as a strict base-10 integer; absent or
// unparsable values count as 0, and negative values are preserved for the
// body reader to reject. Read errors other than EOF abort collection.
func ReadHeaders(r *bufio.Reader) (int, HeaderMap, error) {
	headers := make(HeaderMap)
	length := 0

	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, nil, fmt.Errorf("reading header line: %w", err)
		}
		if line == "" {
			break
		}

		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		headers.Set(name, value)

		if canonicalName(name) == "content-length" {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				n = 0
			}
			length = n
		}
	}

	return length, headers, nil
}
