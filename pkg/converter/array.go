// pkg/converter/array.go
package converter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

// convertToJSON handles conversion of list values to a JSON array string
func (c *TypeConverter) convertToJSON(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "[]", nil
		}
		if !json.Valid([]byte(v)) {
			return nil, fmt.Errorf("value is not valid JSON: %q", v)
		}
		return v, nil
	case []string:
		return EncodeList(v)
	default:
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal to JSON: %w", err)
		}
		return string(jsonBytes), nil
	}
}

// EncodeList serializes a list as a JSON array. A nil list encodes as "[]".
func EncodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(b), nil
}

// DecodeList parses a list column. JSON arrays are preferred. A Postgres array
// literal such as {"Drug: A","Drug: B"} (a text[] column written by an external
// transform and read back as text) is decoded as an array; anything else is
// treated as a ComponentDelimiter joined list.
func DecodeList(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []string{}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, fmt.Errorf("failed to decode list %q: %w", raw, err)
		}
		if items == nil {
			items = []string{}
		}
		return items, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var items pq.StringArray
		if err := items.Scan(trimmed); err != nil {
			return nil, fmt.Errorf("failed to decode array literal %q: %w", raw, err)
		}
		if items == nil {
			return []string{}, nil
		}
		return []string(items), nil
	}

	return model.SplitComponents(raw), nil
}
