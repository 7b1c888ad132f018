package tinkoff

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/shopmart/tinkoff-gateway/provider"
)

// Result is a parsed gateway response body with loosely typed accessors.
type Result map[string]any

// GetString returns a field rendered as a string, or "" when absent.
func (r Result) GetString(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return ""
	}
}

// GetInt returns a field rendered as an int, or 0 when absent or not numeric.
func (r Result) GetInt(key string) int {
	switch v := r[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// GetBool returns a field interpreted as a boolean flag; the gateway renders
// flags as true/false, 1/0 or "1"/"0" depending on the endpoint.
func (r Result) GetBool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v == "1" || v == "true"
	default:
		return false
	}
}

// GetList returns a field as a list of nested results.
func (r Result) GetList(key string) []Result {
	raw, ok := r[key].([]any)
	if !ok {
		return nil
	}
	list := make([]Result, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]any); ok {
			list = append(list, Result(m))
		}
	}
	return list
}

// parseResponse classifies a gateway HTTP response into a success value or a
// taxonomy error: non-JSON bodies fail at the transport layer, a non-zero
// ErrorCode is a gateway rejection, and errors/validations arrays aggregate
// into a single validation error.
func parseResponse(res *provider.HTTPResponse) (Result, error) {
	body := bytes.TrimSpace(res.Body)
	if len(body) == 0 || body[0] != '{' {
		return nil, &provider.TransportError{
			StatusCode: res.StatusCode,
			Reason:     res.Reason,
		}
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &provider.TransportError{
			StatusCode: res.StatusCode,
			Reason:     res.Reason,
		}
	}

	result := Result(parsed)

	if code := result.GetInt("ErrorCode"); code != 0 {
		message := result.GetString("Message")
		if message == "" {
			message = res.Reason
		}
		return nil, &provider.GatewayError{Code: code, Message: message}
	}

	messages := collectMessages(result, "errors")
	if validations := collectMessages(result, "validations"); len(validations) > 0 {
		messages = append(messages, "validation:")
		messages = append(messages, validations...)
	}
	if len(messages) > 0 {
		return nil, &provider.ValidationError{Messages: messages}
	}

	return result, nil
}

// collectMessages flattens a gateway error array into plain strings.
func collectMessages(result Result, key string) []string {
	raw, ok := result[key].([]any)
	if !ok {
		return nil
	}

	var messages []string
	for _, entry := range raw {
		switch v := entry.(type) {
		case string:
			messages = append(messages, v)
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				messages = append(messages, msg)
				continue
			}
			rendered, _ := json.Marshal(v)
			messages = append(messages, string(rendered))
		}
	}
	return messages
}

// send posts a built request to the gateway and parses the response.
func (p *Plugin) send(ctx context.Context, request *provider.SignedRequest) (Result, error) {
	res, err := p.http.PostJSON(ctx, &provider.HTTPRequest{
		URL:     request.URL,
		Headers: request.Headers,
		Body:    request.Payload,
	})
	if err != nil {
		return nil, err
	}
	return parseResponse(res)
}

// get issues an authenticated GET against the gateway and parses the
// response.
func (p *Plugin) get(ctx context.Context, url string, headers map[string]string) (Result, error) {
	res, err := p.http.Get(ctx, &provider.HTTPRequest{
		URL:     url,
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}
	return parseResponse(res)
}
