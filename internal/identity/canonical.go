package identity

import (
	"bytes"
	"encoding/json"
	"sort"
)

// canonicalJSON produces a deterministic JSON encoding of data: object
// keys sorted, no HTML escaping, no indentation. Used so a credential's
// signature is stable regardless of map iteration order.
func canonicalJSON(data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(canonicalizeValue(generic)); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}

func canonicalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return canonicalizeObject(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = canonicalizeValue(e)
		}
		return out
	default:
		return v
	}
}

func canonicalizeObject(obj map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]interface{}, len(obj))
	for _, k := range keys {
		out[k] = canonicalizeValue(obj[k])
	}
	return out
}
