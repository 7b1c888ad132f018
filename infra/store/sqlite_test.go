package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmart/tinkoff-gateway/provider"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "gateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedOrder(t *testing.T, s *SQLiteStore) *provider.Order {
	t.Helper()
	order := &provider.Order{
		ID:       42,
		Number:   "ORD-42",
		Title:    "Order ORD-42",
		Total:    1234.56,
		StatusID: 1,
		Payment:  &provider.PaymentInfo{MethodID: 1, Plugin: "tinkoff"},
		Contacts: &provider.Contacts{Email: "buyer@example.com"},
		Items: []provider.OrderItem{
			{Name: "Widget", Price: 1234.56, Quantity: 1},
		},
		PromoCode: "default",
	}
	require.NoError(t, s.SaveOrder(context.Background(), order))
	return order
}

func TestSQLiteStore_GetOrder(t *testing.T) {
	s := newTestStore(t)
	seedOrder(t, s)

	order, err := s.GetOrder(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, 42, order.ID)
	assert.Equal(t, "ORD-42", order.Number)
	assert.Equal(t, 1234.56, order.Total)
	assert.Equal(t, 1, order.StatusID)
	require.NotNil(t, order.Payment)
	assert.Equal(t, "tinkoff", order.Payment.Plugin)
	assert.Equal(t, 1, order.Payment.MethodID)
	require.NotNil(t, order.Contacts)
	assert.Equal(t, "buyer@example.com", order.Contacts.Email)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "default", order.PromoCode)
	assert.Empty(t, order.Logs)
}

func TestSQLiteStore_GetOrder_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetOrder(context.Background(), 999)
	assert.Error(t, err)
}

func TestSQLiteStore_GetOrderByNumber(t *testing.T) {
	s := newTestStore(t)
	seedOrder(t, s)

	order, err := s.GetOrderByNumber(context.Background(), "ORD-42")
	require.NoError(t, err)
	assert.Equal(t, 42, order.ID)

	_, err = s.GetOrderByNumber(context.Background(), "ORD-999")
	assert.Error(t, err)
}

func TestSQLiteStore_AddLog(t *testing.T) {
	s := newTestStore(t)
	seedOrder(t, s)
	ctx := context.Background()

	require.NoError(t, s.AddLog(ctx, 42, "tinkoff_paid", map[string]any{
		"plugin":    "tinkoff",
		"PaymentId": "700001",
	}))
	require.NoError(t, s.AddLog(ctx, 42, "tinkoff_callback_error", map[string]any{
		"plugin": "tinkoff",
		"error":  "signature mismatch",
	}))

	order, err := s.GetOrder(ctx, 42)
	require.NoError(t, err)
	require.Len(t, order.Logs, 2)

	// Insertion order is preserved.
	assert.Equal(t, "tinkoff_paid", order.Logs[0].Action)
	assert.Equal(t, "700001", order.Logs[0].Data["PaymentId"])
	assert.Equal(t, "tinkoff_callback_error", order.Logs[1].Action)
}

func TestSQLiteStore_UpdateStatus(t *testing.T) {
	s := newTestStore(t)
	seedOrder(t, s)
	ctx := context.Background()

	require.NoError(t, s.UpdateStatus(ctx, 42, 5))

	order, err := s.GetOrder(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 5, order.StatusID)

	assert.Error(t, s.UpdateStatus(ctx, 999, 5))
}

func TestSQLiteStore_MethodParams(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	params := &provider.MethodParams{
		PaymentType:       provider.TypeCredit,
		ShopID:            "shop-1",
		ShowcaseID:        "showcase-1",
		ShowcaseSecret:    "secret",
		StatusesAvailable: []int{1, 2},
		StatusPaid:        5,
		PromoCodes:        map[string]string{"default": "Standard installments"},
	}
	require.NoError(t, s.SaveMethodParams(ctx, 2, params))

	loaded, err := s.MethodParams(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.MethodID)
	assert.Equal(t, provider.TypeCredit, loaded.PaymentType)
	assert.Equal(t, "showcase-1", loaded.ShowcaseID)
	assert.Equal(t, []int{1, 2}, loaded.StatusesAvailable)
	assert.Equal(t, 5, loaded.StatusPaid)
	assert.Equal(t, "Standard installments", loaded.PromoCodes["default"])
}

func TestSQLiteStore_MethodParams_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &provider.MethodParams{TerminalKey: "old-key", TerminalPassword: "pw"}
	require.NoError(t, s.SaveMethodParams(ctx, 1, first))

	second := &provider.MethodParams{TerminalKey: "new-key", TerminalPassword: "pw"}
	require.NoError(t, s.SaveMethodParams(ctx, 1, second))

	loaded, err := s.MethodParams(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new-key", loaded.TerminalKey)
}

func TestSQLiteStore_MethodParams_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.MethodParams(context.Background(), 999)
	assert.Error(t, err)
}
