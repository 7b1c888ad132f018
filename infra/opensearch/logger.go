package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Logger handles OpenSearch logging operations
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// LogEvent indexes a log entry into the category's index
func (l *Logger) LogEvent(ctx context.Context, category string, log any) error {
	if !l.client.IsEnabled() {
		return nil // Logging disabled
	}

	indexName := l.client.GetLogIndexName(category)
	return l.index(ctx, indexName, log)
}

func (l *Logger) index(ctx context.Context, indexName string, log any) error {
	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// SearchLogs searches a category's index for log entries
func (l *Logger) SearchLogs(ctx context.Context, category string, query map[string]any) ([]map[string]any, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}

	indexName := l.client.GetLogIndexName(category)

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": 100,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	logs := make([]map[string]any, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		logs[i] = hit.Source
	}

	return logs, nil
}

// GetPaymentLogs retrieves log entries mentioning a gateway payment id.
// Entry fields are nested under the fields key of the indexed document.
func (l *Logger) GetPaymentLogs(ctx context.Context, category, paymentID string) ([]map[string]any, error) {
	query := map[string]any{
		"match": map[string]any{
			"fields.payment_id": paymentID,
		},
	}

	return l.SearchLogs(ctx, category, query)
}

// GetRecentErrorLogs retrieves recent error entries for a category
func (l *Logger) GetRecentErrorLogs(ctx context.Context, category string, hours int) ([]map[string]any, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{
					"range": map[string]any{
						"timestamp": map[string]any{
							"gte": fmt.Sprintf("now-%dh", hours),
						},
					},
				},
				{
					"term": map[string]any{
						"level": "error",
					},
				},
			},
		},
	}

	return l.SearchLogs(ctx, category, query)
}

// SanitizeForLog removes sensitive information from data before logging
func SanitizeForLog(data string) string {
	sensitiveFields := []string{
		"Password", "password", "Token", "token", "secret", "showcase_secret",
		"terminal_password", "authorization",
	}

	result := data
	for _, field := range sensitiveFields {
		patterns := []string{
			fmt.Sprintf(`"%s"\s*:\s*"[^"]*"`, field),
			fmt.Sprintf(`%s=\w+`, field),
		}

		for _, pattern := range patterns {
			re := regexp.MustCompile(pattern)
			result = re.ReplaceAllString(result, fmt.Sprintf(`"%s":"***REDACTED***"`, field))
		}
	}

	return result
}
