// Package store provides a SQLite-backed reference implementation of the
// host order-model and params-store contracts. A production host plugs in its
// own implementations; this one backs the standalone binary and the tests.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shopmart/tinkoff-gateway/provider"
)

// SQLiteStore persists orders, their append-only logs and per-method params.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (and if needed creates) the store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		total REAL NOT NULL DEFAULT 0,
		status_id INTEGER NOT NULL DEFAULT 0,
		payment_method_id INTEGER,
		payment_plugin TEXT,
		promo_code TEXT NOT NULL DEFAULT '',
		contacts TEXT,
		receipt TEXT,
		items TEXT,
		shipping TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS order_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL REFERENCES orders(id),
		action TEXT NOT NULL,
		data TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_order_logs_order ON order_logs(order_id);

	CREATE TABLE IF NOT EXISTS method_params (
		method_id INTEGER PRIMARY KEY,
		params TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	return s.retry(func() error {
		_, err := s.db.Exec(schema)
		return err
	}, 3)
}

// retry executes a database operation with backoff on SQLITE_BUSY.
func (s *SQLiteStore) retry(operation func() error, maxRetries int) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				time.Sleep(time.Duration(10*(1<<attempt)) * time.Millisecond)
				continue
			}
		} else {
			return err
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries+1, lastErr)
}

// GetOrder looks an order up by id, including its log trail.
func (s *SQLiteStore) GetOrder(ctx context.Context, id int) (*provider.Order, error) {
	return s.getOrder(ctx, "id = ?", id)
}

// GetOrderByNumber looks an order up by its public number.
func (s *SQLiteStore) GetOrderByNumber(ctx context.Context, number string) (*provider.Order, error) {
	return s.getOrder(ctx, "number = ?", number)
}

func (s *SQLiteStore) getOrder(ctx context.Context, where string, arg any) (*provider.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, number, title, total, status_id,
		       payment_method_id, payment_plugin, promo_code,
		       contacts, receipt, items, shipping
		FROM orders WHERE `+where, arg)

	var (
		order                              provider.Order
		methodID                           sql.NullInt64
		plugin                             sql.NullString
		contacts, receipt, items, shipping sql.NullString
	)
	err := row.Scan(&order.ID, &order.Number, &order.Title, &order.Total, &order.StatusID,
		&methodID, &plugin, &order.PromoCode, &contacts, &receipt, &items, &shipping)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if methodID.Valid || plugin.Valid {
		order.Payment = &provider.PaymentInfo{
			MethodID: int(methodID.Int64),
			Plugin:   plugin.String,
		}
	}
	unmarshalInto(contacts, &order.Contacts)
	unmarshalInto(receipt, &order.Receipt)
	unmarshalInto(items, &order.Items)
	unmarshalInto(shipping, &order.Shipping)

	logs, err := s.orderLogs(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Logs = logs

	return &order, nil
}

func (s *SQLiteStore) orderLogs(ctx context.Context, orderID int) ([]provider.OrderLog, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT action, data FROM order_logs WHERE order_id = ? ORDER BY id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order logs: %w", err)
	}
	defer rows.Close()

	var logs []provider.OrderLog
	for rows.Next() {
		var (
			entry provider.OrderLog
			data  sql.NullString
		)
		if err := rows.Scan(&entry.Action, &data); err != nil {
			return nil, fmt.Errorf("failed to scan order log: %w", err)
		}
		if data.Valid && data.String != "" {
			_ = json.Unmarshal([]byte(data.String), &entry.Data)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// AddLog appends an entry to the order's append-only log.
func (s *SQLiteStore) AddLog(ctx context.Context, orderID int, action string, data map[string]any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode log data: %w", err)
	}

	return s.retry(func() error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO order_logs (order_id, action, data) VALUES (?, ?, ?)",
			orderID, action, string(encoded))
		return err
	}, 3)
}

// UpdateStatus transitions the order to a new status.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, orderID, statusID int) error {
	return s.retry(func() error {
		res, err := s.db.ExecContext(ctx,
			"UPDATE orders SET status_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			statusID, orderID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("order %d not found", orderID)
		}
		return nil
	}, 3)
}

// SaveOrder inserts or replaces an order row. Log entries are not touched.
func (s *SQLiteStore) SaveOrder(ctx context.Context, order *provider.Order) error {
	var methodID sql.NullInt64
	var plugin sql.NullString
	if order.Payment != nil {
		methodID = sql.NullInt64{Int64: int64(order.Payment.MethodID), Valid: true}
		plugin = sql.NullString{String: order.Payment.Plugin, Valid: true}
	}

	return s.retry(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO orders
				(id, number, title, total, status_id, payment_method_id, payment_plugin,
				 promo_code, contacts, receipt, items, shipping)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID, order.Number, order.Title, order.Total, order.StatusID,
			methodID, plugin, order.PromoCode,
			marshalNullable(order.Contacts), marshalNullable(order.Receipt),
			marshalNullable(order.Items), marshalNullable(order.Shipping))
		return err
	}, 3)
}

// MethodParams loads the raw params snapshot for a payment method.
func (s *SQLiteStore) MethodParams(ctx context.Context, methodID int) (*provider.MethodParams, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT params FROM method_params WHERE method_id = ?", methodID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("method params not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load method params: %w", err)
	}

	var params provider.MethodParams
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("failed to decode method params: %w", err)
	}
	params.MethodID = methodID
	return &params, nil
}

// SaveMethodParams inserts or replaces the params snapshot for a method.
func (s *SQLiteStore) SaveMethodParams(ctx context.Context, methodID int, params *provider.MethodParams) error {
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode method params: %w", err)
	}

	return s.retry(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO method_params (method_id, params, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(method_id) DO UPDATE SET
				params = excluded.params,
				updated_at = CURRENT_TIMESTAMP`,
			methodID, string(encoded))
		return err
	}, 3)
}

func marshalNullable(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	encoded, err := json.Marshal(v)
	if err != nil || string(encoded) == "null" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(encoded), Valid: true}
}

func unmarshalInto(raw sql.NullString, target any) {
	if !raw.Valid || raw.String == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw.String), target)
}
