package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopmart/tinkoff-gateway/infra/response"
)

// LoggerInterface defines the interface for log query operations
type LoggerInterface interface {
	SearchLogs(ctx context.Context, category string, query map[string]any) ([]map[string]any, error)
	GetPaymentLogs(ctx context.Context, category, paymentID string) ([]map[string]any, error)
	GetRecentErrorLogs(ctx context.Context, category string, hours int) ([]map[string]any, error)
}

// logCategories are the only indices the query surface exposes.
var logCategories = map[string]bool{
	"payment.pay":      true,
	"payment.callback": true,
	"system":           true,
}

// LogsHandler handles log query HTTP requests over the debug trail
type LogsHandler struct {
	logger LoggerInterface
}

// NewLogsHandler creates a new logs handler
func NewLogsHandler(logger LoggerInterface) *LogsHandler {
	return &LogsHandler{
		logger: logger,
	}
}

// Routes mounts the log query endpoints
func (h *LogsHandler) Routes(r chi.Router) {
	r.Get("/{category}", h.ListLogs)
	r.Get("/{category}/errors", h.GetRecentErrorLogs)
	r.Get("/{category}/payments/{paymentID}", h.GetPaymentLogs)
}

// ListLogs lists log entries of a category with optional filtering
func (h *LogsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	category, ok := h.category(w, r)
	if !ok {
		return
	}

	// Parse query parameters
	query := make(map[string]any)

	// Payment ID filter
	if paymentID := r.URL.Query().Get("paymentId"); paymentID != "" {
		query = map[string]any{
			"match": map[string]any{
				"fields.payment_id": paymentID,
			},
		}
	}

	// Error filter (only errors)
	if errorsOnly := r.URL.Query().Get("errorsOnly"); errorsOnly == "true" {
		errorFilter := map[string]any{
			"term": map[string]any{
				"level": "error",
			},
		}

		if len(query) == 0 {
			query = errorFilter
		} else {
			query = mustQuery(query, errorFilter)
		}
	}

	hours := queryHours(r)
	timeFilter := map[string]any{
		"range": map[string]any{
			"timestamp": map[string]any{
				"gte": fmt.Sprintf("now-%dh", hours),
			},
		},
	}

	if len(query) == 0 {
		query = timeFilter
	} else {
		query = mustQuery(query, timeFilter)
	}

	logs, err := h.logger.SearchLogs(ctx, category, query)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to search logs", err)
		return
	}

	responseData := map[string]any{
		"category": category,
		"filters": map[string]any{
			"hours":      hours,
			"paymentId":  r.URL.Query().Get("paymentId"),
			"errorsOnly": r.URL.Query().Get("errorsOnly") == "true",
		},
		"count": len(logs),
		"logs":  logs,
	}

	response.Success(w, http.StatusOK, "Logs retrieved successfully", responseData)
}

// GetPaymentLogs retrieves a category's entries for a gateway payment id
func (h *LogsHandler) GetPaymentLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	category, ok := h.category(w, r)
	if !ok {
		return
	}

	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "paymentID parameter is required", nil)
		return
	}

	logs, err := h.logger.GetPaymentLogs(ctx, category, paymentID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve payment logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment logs retrieved successfully", map[string]any{
		"category":  category,
		"paymentId": paymentID,
		"count":     len(logs),
		"logs":      logs,
	})
}

// GetRecentErrorLogs retrieves a category's recent error entries
func (h *LogsHandler) GetRecentErrorLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	category, ok := h.category(w, r)
	if !ok {
		return
	}

	hours := queryHours(r)

	logs, err := h.logger.GetRecentErrorLogs(ctx, category, hours)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve error logs", err)
		return
	}

	response.Success(w, http.StatusOK, "Error logs retrieved successfully", map[string]any{
		"category": category,
		"hours":    hours,
		"count":    len(logs),
		"logs":     logs,
	})
}

// category resolves and validates the category path parameter. On failure
// the response is already written.
func (h *LogsHandler) category(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.logger == nil {
		response.Error(w, http.StatusServiceUnavailable, "Logging service not available", nil)
		return "", false
	}

	category := chi.URLParam(r, "category")
	if !logCategories[category] {
		response.Error(w, http.StatusNotFound, "Unknown log category", nil)
		return "", false
	}

	return category, true
}

// queryHours parses the hours query parameter, defaulting to 24 and capping
// at 7 days.
func queryHours(r *http.Request) int {
	hours := 24
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		if n, err := strconv.Atoi(hoursStr); err == nil && n > 0 && n <= 168 {
			hours = n
		}
	}
	return hours
}

// mustQuery combines two filters into a bool must query.
func mustQuery(a, b map[string]any) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{a, b},
		},
	}
}
