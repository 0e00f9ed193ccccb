package drillhq

import (
	"math"
	"sort"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
)

// envelope is the application-level wrapper the backend puts around most
// responses. None of its fields are guaranteed: some routes omit the success
// flag, some return the record set at the top level with no wrapper at all.
type envelope struct {
	Success *bool
	Message string
	Data    any
	Errors  map[string][]string
}

// ok reports whether the payload is an application-level success. An absent
// success flag counts as success; only an explicit false fails.
func (e envelope) ok() bool {
	return e.Success == nil || *e.Success
}

func parseEnvelope(raw []byte) (envelope, error) {
	var root any
	if err := sonic.Unmarshal(raw, &root); err != nil {
		return envelope{}, err
	}

	typed, isObject := root.(map[string]any)
	if !isObject {
		return envelope{Data: root}, nil
	}

	env := envelope{Data: any(typed)}
	if value, ok := typed["data"]; ok {
		env.Data = value
	}
	if value, ok := typed["success"].(bool); ok {
		env.Success = &value
	}
	if value, ok := typed["message"].(string); ok {
		env.Message = strings.TrimSpace(value)
	}
	env.Errors = parseFieldErrors(typed["errors"])

	return env, nil
}

func parseFieldErrors(raw any) map[string][]string {
	source, ok := raw.(map[string]any)
	if !ok || len(source) == 0 {
		return nil
	}

	out := make(map[string][]string, len(source))
	for field, value := range source {
		switch typed := value.(type) {
		case string:
			out[field] = []string{typed}
		case []any:
			messages := make([]string, 0, len(typed))
			for _, item := range typed {
				if msg, ok := item.(string); ok {
					messages = append(messages, msg)
				}
			}
			if len(messages) > 0 {
				out[field] = messages
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Normalize flattens a decoded payload of unknown shape into an ordered record
// sequence. Rules apply in order, first match wins: a sequence is returned
// as-is, an object wrapping a "data" sequence is unwrapped one level, any other
// object is treated as a map of records (values in sorted key order so the
// result is deterministic), anything else yields an empty sequence. Normalize
// never fails; unrecognized shapes degrade to empty.
func Normalize(data any) []map[string]any {
	switch typed := data.(type) {
	case []any:
		return recordSlice(typed)
	case map[string]any:
		if inner, ok := typed["data"].([]any); ok {
			return recordSlice(inner)
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		out := make([]map[string]any, 0, len(keys))
		for _, key := range keys {
			if record, ok := typed[key].(map[string]any); ok {
				out = append(out, record)
			}
		}
		return out
	default:
		return []map[string]any{}
	}
}

func recordSlice(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, record)
	}
	return out
}

func getString(src map[string]any, keys ...string) string {
	for _, key := range keys {
		raw, ok := src[key]
		if !ok || raw == nil {
			continue
		}
		if value, ok := raw.(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// getID reads an identifier that the backend serializes as either a JSON
// number or a string, normalized to its canonical string form.
func getID(src map[string]any, keys ...string) string {
	for _, key := range keys {
		raw, ok := src[key]
		if !ok || raw == nil {
			continue
		}
		if id := idString(raw); id != "" {
			return id
		}
	}
	return ""
}

func idString(raw any) string {
	switch typed := raw.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		if typed == math.Trunc(typed) {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
