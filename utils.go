package influ

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const notionHost = "https://www.notion.so/"

// JSONDump renders v as indented JSON for diagnostic placeholders.
func JSONDump(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error marshaling: %v", err)
	}
	return string(b)
}

// DiagnosticDump prefers the original wire bytes of a value, falling back
// to re-marshalling v when none were captured.
func DiagnosticDump(raw json.RawMessage, v any) string {
	if len(raw) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err == nil {
			return buf.String()
		}
		return string(raw)
	}
	return JSONDump(v)
}

// CanonicalPageURL builds the public URL for a page or database id.
// Ids arrive dashed on the wire but the short URL form strips them.
func CanonicalPageURL(id string) string {
	return notionHost + strings.ReplaceAll(id, "-", "")
}

// FormatNumber prints a wire number the way the source system displays it:
// no trailing zeros, no exponent for ordinary magnitudes.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
