package provider

import (
	"context"
	"strings"
)

// PaymentType selects which gateway flow a payment method uses
type PaymentType string

const (
	// TypeAcquiring is the direct card-payment flow
	TypeAcquiring PaymentType = "acquiring"
	// TypeCredit is the installment flow brokered through a showcase loan product
	TypeCredit PaymentType = "credit"
)

// MethodParams is the read-only configuration snapshot for one merchant
// terminal or showcase. Credentials are trimmed on load; an empty credential
// makes the method unusable.
type MethodParams struct {
	MethodID    int         `json:"method_id"`
	PaymentType PaymentType `json:"payment_type"`
	TestMode    bool        `json:"test_mode"`

	// Acquiring credentials
	TerminalKey      string `json:"terminal_key,omitempty"`
	TerminalPassword string `json:"terminal_password,omitempty"`

	// Credit credentials
	ShopID         string `json:"shop_id,omitempty"`
	ShowcaseID     string `json:"showcase_id,omitempty"`
	ShowcaseSecret string `json:"showcase_secret,omitempty"`

	// Order status wiring
	StatusesAvailable []int `json:"statuses_available"`
	StatusPaid        int   `json:"statuses_paid"`

	// Fiscal receipt taxation scheme, e.g. "osn"
	Taxation string `json:"taxation,omitempty"`

	// Credit promo codes: code -> display label
	PromoCodes map[string]string `json:"promo_codes,omitempty"`
}

// Trim normalizes all credential fields in place.
func (p *MethodParams) Trim() {
	p.TerminalKey = strings.TrimSpace(p.TerminalKey)
	p.TerminalPassword = strings.TrimSpace(p.TerminalPassword)
	p.ShopID = strings.TrimSpace(p.ShopID)
	p.ShowcaseID = strings.TrimSpace(p.ShowcaseID)
	p.ShowcaseSecret = strings.TrimSpace(p.ShowcaseSecret)
}

// HasAcquiringAccess reports whether the acquiring credential pair is present.
func (p *MethodParams) HasAcquiringAccess() bool {
	return strings.TrimSpace(p.TerminalKey) != "" && strings.TrimSpace(p.TerminalPassword) != ""
}

// HasCreditAccess reports whether the credit credential triple is present.
func (p *MethodParams) HasCreditAccess() bool {
	return strings.TrimSpace(p.ShopID) != "" &&
		strings.TrimSpace(p.ShowcaseID) != "" &&
		strings.TrimSpace(p.ShowcaseSecret) != ""
}

// StatusAvailable reports whether an order status is eligible for this method.
func (p *MethodParams) StatusAvailable(statusID int) bool {
	for _, s := range p.StatusesAvailable {
		if s == statusID {
			return true
		}
	}
	return false
}

// Contacts holds the order contact info forwarded to the gateway
type Contacts struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ReceiptItem is one fiscal line of an itemized receipt. Monetary values are
// in minor currency units.
type ReceiptItem struct {
	Name          string `json:"name"`
	PriceMinor    int64  `json:"price_minor"`
	Quantity      int    `json:"quantity"`
	AmountMinor   int64  `json:"amount_minor"`
	Tax           string `json:"tax"`
	PaymentMethod string `json:"payment_method"`
	PaymentObject string `json:"payment_object"`
}

// Receipt is the structured fiscal receipt attached to an order
type Receipt struct {
	AmountMinor int64         `json:"amount_minor"`
	Description string        `json:"description"`
	Items       []ReceiptItem `json:"items"`
}

// OrderItem is a plain order line used when no fiscal receipt is present
type OrderItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// OrderLog is one immutable entry of an order's append-only log
type OrderLog struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data,omitempty"`
}

// PaymentInfo references the payment method an order was placed with
type PaymentInfo struct {
	MethodID int    `json:"method_id"`
	Plugin   string `json:"plugin"`
}

// Order is the host-owned order entity as seen by payment plugins
type Order struct {
	ID       int          `json:"id"`
	Number   string       `json:"number"`
	Title    string       `json:"title"`
	Total    float64      `json:"total"`
	StatusID int          `json:"status_id"`
	Payment  *PaymentInfo `json:"payment,omitempty"`
	Contacts *Contacts    `json:"contacts,omitempty"`
	Receipt  *Receipt     `json:"receipt,omitempty"`
	Items    []OrderItem  `json:"items,omitempty"`
	Shipping *OrderItem   `json:"shipping,omitempty"`
	Logs     []OrderLog   `json:"logs,omitempty"`

	// PromoCode is the credit promo code selected on the order form
	PromoCode string `json:"promo_code,omitempty"`
}

// Links are the host checkout URLs handed to a plugin on pay initiation
type Links struct {
	Callback string `json:"callback"`
	Success  string `json:"success"`
	Fail     string `json:"fail"`
}

// SignedRequest is a fully assembled outbound gateway request. The caller is
// responsible for the actual transport.
type SignedRequest struct {
	URL     string            `json:"url"`
	Payload map[string]any    `json:"payload"`
	Headers map[string]string `json:"headers,omitempty"`
}

// PayResult is what a plugin returns from pay initiation
type PayResult struct {
	PayInstant bool   `json:"pay_instant"`
	Link       string `json:"link,omitempty"`
}

// MethodListing is the method descriptor a plugin prepares for the checkout
// method list. Secret params must never leak into it.
type MethodListing struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Disabled    bool   `json:"disabled"`
}

// FormOption is one selectable option rendered by the host order form
type FormOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OrderStore is the host order model surface consumed by plugins.
type OrderStore interface {
	// GetOrder looks an order up by id, including its log trail.
	GetOrder(ctx context.Context, id int) (*Order, error)

	// GetOrderByNumber looks an order up by its public number.
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)

	// AddLog appends an entry to the order's append-only log.
	AddLog(ctx context.Context, orderID int, action string, data map[string]any) error

	// UpdateStatus transitions the order to a new status.
	UpdateStatus(ctx context.Context, orderID, statusID int) error
}

// ParamsStore loads per-method configuration snapshots.
type ParamsStore interface {
	MethodParams(ctx context.Context, methodID int) (*MethodParams, error)
}

// PaymentPlugin is the hook set a payment plugin exposes to the host checkout
// pipeline dispatcher.
type PaymentPlugin interface {
	// Name returns the plugin name referenced by order payment methods.
	Name() string

	// OnGetOrderPaymentMethods prepares a method descriptor for the checkout
	// method list, scrubbing credentials.
	OnGetOrderPaymentMethods(ctx context.Context, listing *MethodListing) error

	// OnCheckOrderPay reports whether the order can be paid with this plugin.
	OnCheckOrderPay(ctx context.Context, order *Order) bool

	// OnPaymentPay initiates a payment and returns redirect data.
	OnPaymentPay(ctx context.Context, order *Order, links Links) (*PayResult, error)

	// OnPaymentCallback handles an asynchronous gateway notification. It never
	// returns an error: the gateway retries on anything but a plain OK, so
	// failures are logged and swallowed. The returned body is always "OK".
	OnPaymentCallback(ctx context.Context, input map[string]any, raw []byte) string

	// OnGetOrderLogs returns the plugin's entries of an order log trail.
	OnGetOrderLogs(order *Order) []OrderLog

	// OnGetOrderForm returns extra order-form options for a method, such as
	// credit promo codes.
	OnGetOrderForm(ctx context.Context, methodID int) ([]FormOption, error)
}

// PluginFactory creates a new PaymentPlugin instance
type PluginFactory func(deps Deps) PaymentPlugin

// Deps bundles the host collaborators injected into every plugin.
type Deps struct {
	Orders OrderStore
	Params ParamsStore
	HTTP   *HTTPClient
	Log    LogRegistry
}

// LogRegistry hands out named logger categories. It replaces the original
// integration's static per-category logger cache with an explicit object
// created once per process and injected.
type LogRegistry interface {
	Category(name string) CategoryLogger
}

// CategoryLogger is the minimal logging surface plugins write their debug
// trail and errors to.
type CategoryLogger interface {
	Debug(message string, fields map[string]any)
	Info(message string, fields map[string]any)
	Error(message string, err error, fields map[string]any)
}
