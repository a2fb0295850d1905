// ABOUTME: Conversion between command-line arguments and wire values
// ABOUTME: Renders results the way node CLIs traditionally print them

package main

import (
	"bytes"
	"encoding/json"

	"github.com/meridian-node/meridian/pkg/jsonval"
)

// convertParams turns positional arguments into the params array.
// Arguments that parse as JSON become typed values; everything else
// passes through as a string.
func convertParams(args []string) jsonval.Value {
	elems := make([]jsonval.Value, 0, len(args))
	for _, arg := range args {
		if v, err := jsonval.Parse([]byte(arg)); err == nil {
			elems = append(elems, v)
			continue
		}
		elems = append(elems, jsonval.String(arg))
	}
	return jsonval.Array(elems...)
}

// renderResult formats an RPC result for printing: nothing for null, the
// raw text for strings, indented JSON for everything else.
func renderResult(result jsonval.Value) string {
	switch result.Kind() {
	case jsonval.KindNull:
		return ""
	case jsonval.KindString:
		s, _ := result.AsString()
		return s
	default:
		compact := jsonval.Marshal(result)
		var buf bytes.Buffer
		if err := json.Indent(&buf, compact, "", "    "); err != nil {
			return string(compact)
		}
		return buf.String()
	}
}
