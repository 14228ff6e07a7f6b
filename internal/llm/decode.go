package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// DecodeJSONObject recovers a single JSON object from raw model output.
// Models frequently wrap their answer in a markdown code fence or surround it
// with prose; we strip the fence, then fall back to the outermost brace
// window, and finally verify the remainder parses as an object.
func DecodeJSONObject(raw string) (json.RawMessage, error) {
	s := strings.TrimSpace(raw)

	if m := fencedJSON.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start >= 0 && end > start {
			s = s[start : end+1]
		}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	return json.RawMessage(s), nil
}
