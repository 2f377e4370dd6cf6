package vision

import (
	"encoding/json"
	"fmt"
	"log"
)

// ParseAnalysisResult decodes the model's JSON answer into a flat string map.
// Malformed input never fails: it yields a minimal default mapping so the
// capture flow always has something to work with.
func ParseAnalysisResult(analysis string) map[string]string {
	var raw map[string]any
	if err := json.Unmarshal([]byte(analysis), &raw); err != nil {
		log.Printf("analysis result parse error: %v", err)
		return map[string]string{
			"deviceNumber": "ASSET-2025-00001",
			"department":   "Unknown",
			"condition":    "Unknown",
		}
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			// skip
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
