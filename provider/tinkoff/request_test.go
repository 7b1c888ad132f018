package tinkoff

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopmart/tinkoff-gateway/provider"
)

func acquiringParams() *provider.MethodParams {
	return &provider.MethodParams{
		MethodID:          1,
		PaymentType:       provider.TypeAcquiring,
		TerminalKey:       "terminal-key",
		TerminalPassword:  "terminal-password",
		StatusesAvailable: []int{1, 2},
		StatusPaid:        5,
	}
}

func creditParams() *provider.MethodParams {
	return &provider.MethodParams{
		MethodID:       2,
		PaymentType:    provider.TypeCredit,
		ShopID:         "shop-1",
		ShowcaseID:     "showcase-1",
		ShowcaseSecret: "showcase-secret",
		PromoCodes: map[string]string{
			"default":             "Standard installments",
			"installment_0_0_6_5": "0-0-6",
		},
		StatusesAvailable: []int{1},
		StatusPaid:        5,
	}
}

func testOrder() *provider.Order {
	return &provider.Order{
		ID:       42,
		Number:   "ORD-42",
		Title:    "Order ORD-42",
		Total:    1234.56,
		StatusID: 1,
		Payment:  &provider.PaymentInfo{MethodID: 1, Plugin: PluginName},
		Contacts: &provider.Contacts{Email: "buyer@example.com", Phone: "+7 (900) 123-45-67"},
	}
}

func testLinks() provider.Links {
	return provider.Links{
		Callback: "https://shop.example.com/v1/callback/tinkoff",
		Success:  "https://shop.example.com/checkout/success",
		Fail:     "https://shop.example.com/checkout/fail",
	}
}

func TestBuildAcquiringRequest(t *testing.T) {
	p := &Plugin{name: PluginName}
	order := testOrder()

	req, err := p.buildAcquiringRequest(order, testLinks(), acquiringParams())
	if err != nil {
		t.Fatalf("buildAcquiringRequest() error = %v", err)
	}

	if req.URL != acquiringProductionURL+endpointInit {
		t.Errorf("URL = %s, want %s", req.URL, acquiringProductionURL+endpointInit)
	}

	if req.Payload["TerminalKey"] != "terminal-key" {
		t.Errorf("TerminalKey = %v", req.Payload["TerminalKey"])
	}

	if amount, ok := req.Payload["Amount"].(int64); !ok || amount != 123456 {
		t.Errorf("Amount = %v, want 123456 minor units", req.Payload["Amount"])
	}

	orderID, _ := req.Payload["OrderId"].(string)
	if !strings.HasPrefix(orderID, "42_") {
		t.Errorf("OrderId = %q, want 42_<unix> form", orderID)
	}

	if req.Payload["SuccessURL"] != "https://shop.example.com/checkout/success/ORD-42" {
		t.Errorf("SuccessURL = %v", req.Payload["SuccessURL"])
	}

	// Contacts travel in DATA but never in the signature.
	data, ok := req.Payload["DATA"].(map[string]any)
	if !ok {
		t.Fatal("DATA block missing")
	}
	if data["Email"] != "buyer@example.com" {
		t.Errorf("DATA.Email = %v", data["Email"])
	}
	if data["Phone"] != "+79001234567" {
		t.Errorf("DATA.Phone = %v, want digits with leading plus", data["Phone"])
	}

	token, _ := req.Payload["Token"].(string)
	if token == "" {
		t.Fatal("payload carries no Token")
	}
	if token != Sign(req.Payload, "terminal-password") {
		t.Error("Token does not verify over the final payload")
	}
}

func TestBuildAcquiringRequest_Sandbox(t *testing.T) {
	p := &Plugin{name: PluginName}
	params := acquiringParams()
	params.TestMode = true

	req, err := p.buildAcquiringRequest(testOrder(), testLinks(), params)
	if err != nil {
		t.Fatalf("buildAcquiringRequest() error = %v", err)
	}

	if req.URL != acquiringSandboxURL+endpointInit {
		t.Errorf("URL = %s, want sandbox host", req.URL)
	}
}

func TestBuildAcquiringRequest_ReceiptOverridesAmount(t *testing.T) {
	p := &Plugin{name: PluginName}
	order := testOrder()
	order.Receipt = &provider.Receipt{
		AmountMinor: 100000,
		Description: "Fiscal description",
		Items: []provider.ReceiptItem{
			{
				Name:          "Widget",
				PriceMinor:    50000,
				Quantity:      2,
				AmountMinor:   100000,
				Tax:           "vat20",
				PaymentMethod: "full_payment",
				PaymentObject: "commodity",
			},
		},
	}

	req, err := p.buildAcquiringRequest(order, testLinks(), acquiringParams())
	if err != nil {
		t.Fatalf("buildAcquiringRequest() error = %v", err)
	}

	if amount, ok := req.Payload["Amount"].(int64); !ok || amount != 100000 {
		t.Errorf("Amount = %v, want receipt amount 100000", req.Payload["Amount"])
	}
	if req.Payload["Description"] != "Fiscal description" {
		t.Errorf("Description = %v", req.Payload["Description"])
	}

	receipt, ok := req.Payload["Receipt"].(map[string]any)
	if !ok {
		t.Fatal("Receipt block missing")
	}
	if receipt["Taxation"] != "osn" {
		t.Errorf("Taxation = %v, want default osn", receipt["Taxation"])
	}
	if receipt["Email"] != "buyer@example.com" {
		t.Errorf("receipt contacts missing: %v", receipt["Email"])
	}

	items, ok := receipt["Items"].([]map[string]any)
	if !ok || len(items) != 1 {
		t.Fatalf("Receipt.Items = %v", receipt["Items"])
	}
	if items[0]["Price"] != int64(50000) || items[0]["Amount"] != int64(100000) {
		t.Errorf("receipt item minor units wrong: %v", items[0])
	}
}

func TestBuildAcquiringRequest_NoCredentials(t *testing.T) {
	p := &Plugin{name: PluginName}
	params := acquiringParams()
	params.TerminalPassword = ""

	_, err := p.buildAcquiringRequest(testOrder(), testLinks(), params)
	if !errors.Is(err, provider.ErrAccess) {
		t.Errorf("error = %v, want ErrAccess", err)
	}
}

func TestBuildCreditRequest(t *testing.T) {
	p := &Plugin{name: PluginName}
	order := testOrder()
	order.PromoCode = "default"
	order.Items = []provider.OrderItem{
		{Name: "Widget", Price: 1000.00, Quantity: 1},
		{Name: "Gadget", Price: 117.28, Quantity: 2},
	}
	order.Shipping = &provider.OrderItem{Name: "Delivery", Price: 0}

	req, err := p.buildCreditRequest(order, testLinks(), creditParams())
	if err != nil {
		t.Fatalf("buildCreditRequest() error = %v", err)
	}

	if req.URL != creditBaseURL+endpointCreditCreate {
		t.Errorf("URL = %s", req.URL)
	}
	if req.Payload["shopId"] != "shop-1" || req.Payload["showcaseId"] != "showcase-1" {
		t.Errorf("credentials wrong: %v %v", req.Payload["shopId"], req.Payload["showcaseId"])
	}
	if req.Payload["orderNumber"] != "ORD-42" {
		t.Errorf("orderNumber = %v", req.Payload["orderNumber"])
	}
	if req.Payload["promoCode"] != "default" {
		t.Errorf("promoCode = %v", req.Payload["promoCode"])
	}

	items, ok := req.Payload["items"].([]map[string]any)
	if !ok || len(items) != 3 {
		t.Fatalf("items = %v", req.Payload["items"])
	}
	if items[2]["name"] != "Delivery" || items[2]["quantity"] != 1 {
		t.Errorf("shipping line wrong: %v", items[2])
	}

	expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("showcase-1:showcase-secret"))
	if req.Headers["Authorization"] != expectedAuth {
		t.Errorf("Authorization = %s, want %s", req.Headers["Authorization"], expectedAuth)
	}

	// Credit requests are not token signed.
	if _, ok := req.Payload["Token"]; ok {
		t.Error("credit payload must not carry a Token")
	}
}

func TestBuildCreditRequest_Sandbox(t *testing.T) {
	p := &Plugin{name: PluginName}
	order := testOrder()
	order.PromoCode = "default"
	params := creditParams()
	params.TestMode = true

	req, err := p.buildCreditRequest(order, testLinks(), params)
	if err != nil {
		t.Fatalf("buildCreditRequest() error = %v", err)
	}

	if req.URL != creditBaseURL+endpointCreditCreateDemo {
		t.Errorf("URL = %s, want demo endpoint", req.URL)
	}

	number, _ := req.Payload["orderNumber"].(string)
	if !strings.HasPrefix(number, "ORD-42"+testOrderSeparator) {
		t.Errorf("orderNumber = %q, want sandbox suffix after %q", number, testOrderSeparator)
	}

	expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("demo-showcase-1:showcase-secret"))
	if req.Headers["Authorization"] != expectedAuth {
		t.Errorf("Authorization = %s, want demo-prefixed showcase", req.Headers["Authorization"])
	}
}

func TestBuildCreditRequest_ReceiptSum(t *testing.T) {
	p := &Plugin{name: PluginName}
	order := testOrder()
	order.PromoCode = "default"
	order.Receipt = &provider.Receipt{
		AmountMinor: 123456,
		Items: []provider.ReceiptItem{
			{Name: "Widget", PriceMinor: 61728, Quantity: 2},
		},
	}

	req, err := p.buildCreditRequest(order, testLinks(), creditParams())
	if err != nil {
		t.Fatalf("buildCreditRequest() error = %v", err)
	}

	if sum, ok := req.Payload["sum"].(float64); !ok || sum != 1234.56 {
		t.Errorf("sum = %v, want 1234.56 major units", req.Payload["sum"])
	}

	items := req.Payload["items"].([]map[string]any)
	if items[0]["price"] != 617.28 {
		t.Errorf("item price = %v, want 617.28", items[0]["price"])
	}
}

func TestBuildCreditRequest_PromoCodeErrors(t *testing.T) {
	p := &Plugin{name: PluginName}

	tests := []struct {
		name      string
		promoCode string
	}{
		{"Missing promo code", ""},
		{"Unknown promo code", "no-such-code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testOrder()
			order.PromoCode = tt.promoCode

			_, err := p.buildCreditRequest(order, testLinks(), creditParams())
			if !errors.Is(err, provider.ErrPromoCodeNotFound) {
				t.Errorf("error = %v, want ErrPromoCodeNotFound", err)
			}
		})
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount   float64
		expected int64
	}{
		{0, 0},
		{1, 100},
		{1234.56, 123456},
		{0.1, 10},
		{19.99, 1999},
		// Binary float residue must round, not truncate.
		{29.035, 2904},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.amount), func(t *testing.T) {
			if got := minorUnits(tt.amount); got != tt.expected {
				t.Errorf("minorUnits(%v) = %d, want %d", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestCleanPhone(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"+7 (900) 123-45-67", "+79001234567"},
		{"8 900 123 45 67", "89001234567"},
		{"tel:+79001234567", "79001234567"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := cleanPhone(tt.in); got != tt.expected {
			t.Errorf("cleanPhone(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}
