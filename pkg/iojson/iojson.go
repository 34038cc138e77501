// Package iojson writes command output as JSON and reads JSON command input.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteWith writes v to w as indented JSON. When v cannot be encoded, a
// {"error": ...} object goes to ew and the encoding error is returned.
func WriteWith(w, ew io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		_ = json.NewEncoder(ew).Encode(struct {
			Error string `json:"error"`
		}{Error: err.Error()})
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteLine writes v as one compact JSON line, for streaming output.
func WriteLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
