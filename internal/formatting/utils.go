package formatting

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PrettyJSON renders v as two-space indented JSON ending in a newline, so
// it can be printed next to the tables. Characters like < and > are kept
// as-is since the output goes to a terminal or a pipe. A value that cannot
// be encoded falls back to its %v form.
func PrettyJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v\n", v)
	}
	return buf.String()
}
