package tinkoff

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Sign computes the deterministic request token over a flat field map.
//
// The algorithm must match the gateway's own verification bit for bit:
// the trimmed password is inserted under "Password", scalar values are
// coerced to strings (booleans as the literal words "true"/"false"), any
// pre-existing "Token" key is dropped, keys are sorted in ascending byte
// order and the values alone are concatenated with no separator; the token
// is the lowercase hex SHA-256 of that string.
//
// Array- and object-valued fields (receipt lines, contact blocks) are
// excluded from the input entirely. That is a property of the gateway
// protocol, not an oversight here: such fields travel in the request but are
// never signed.
func Sign(fields map[string]any, password string) string {
	args := make(map[string]string, len(fields)+1)

	for key, value := range fields {
		if key == "Token" {
			continue
		}
		coerced, ok := coerceScalar(value)
		if !ok {
			continue
		}
		args[key] = coerced
	}

	args["Password"] = strings.TrimSpace(password)

	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var concat strings.Builder
	for _, key := range keys {
		concat.WriteString(args[key])
	}

	sum := sha256.Sum256([]byte(concat.String()))
	return hex.EncodeToString(sum[:])
}

// coerceScalar renders a scalar value the way the gateway expects; the second
// return is false for container values, which must stay out of the signature.
func coerceScalar(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

// VerifyToken recompares the inbound "Token" field of a decoded callback body
// against a signature recomputed over that same body.
func VerifyToken(body map[string]any, password string) bool {
	token, _ := body["Token"].(string)
	if token == "" {
		return false
	}
	return Sign(body, password) == token
}
