package validation

import (
	"bytes"
	"encoding/json"
	"math"
)

type object map[string]json.RawMessage

// decodeObject parses body as a JSON object. An empty body is treated as {}
// so that every required field is reported as missing.
func decodeObject(c *collector, body []byte) (object, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return object{}, true
	}
	if kind := jsonKind(body); kind != "object" {
		if !json.Valid(body) {
			c.add("", "Malformed JSON body")
			return nil, false
		}
		c.addf("", "Expected object, received %s", kind)
		return nil, false
	}
	var obj object
	if err := json.Unmarshal(body, &obj); err != nil {
		c.add("", "Malformed JSON body")
		return nil, false
	}
	return obj, true
}

// jsonKind names the JSON type of raw the way error messages report it
func jsonKind(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "undefined"
	}
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func (o object) requiredString(c *collector, key string) (string, bool) {
	raw, ok := o[key]
	if !ok {
		c.add(key, "Required")
		return "", false
	}
	if kind := jsonKind(raw); kind != "string" {
		c.addf(key, "Expected string, received %s", kind)
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		c.add(key, "Invalid string")
		return "", false
	}
	return s, true
}

func (o object) optionalInteger(c *collector, key string) (*int64, bool) {
	raw, ok := o[key]
	if !ok {
		return nil, true
	}
	if kind := jsonKind(raw); kind != "number" {
		c.addf(key, "Expected number, received %s", kind)
		return nil, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		c.add(key, "Invalid number")
		return nil, false
	}
	if f != math.Trunc(f) {
		c.add(key, "Expected integer, received float")
		return nil, false
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if f >= math.MaxInt64 || f < math.MinInt64 {
		c.add(key, "Number out of range")
		return nil, false
	}
	n := int64(f)
	return &n, true
}
