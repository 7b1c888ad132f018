package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopmart/tinkoff-gateway/infra/response"
	"github.com/shopmart/tinkoff-gateway/provider"
)

// CheckoutHandler exposes the checkout pipeline hooks of the registered
// payment plugins over HTTP.
type CheckoutHandler struct {
	plugins map[string]provider.PaymentPlugin
	orders  provider.OrderStore
	baseURL string
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(plugins map[string]provider.PaymentPlugin, orders provider.OrderStore, baseURL string) *CheckoutHandler {
	return &CheckoutHandler{
		plugins: plugins,
		orders:  orders,
		baseURL: baseURL,
	}
}

// Routes mounts the checkout endpoints
func (h *CheckoutHandler) Routes(r chi.Router) {
	r.Get("/methods/{plugin}/{methodID}", h.GetPaymentMethod)
	r.Get("/methods/{plugin}/{methodID}/form", h.GetOrderForm)
	r.Get("/orders/{orderID}/pay/check", h.CheckOrderPay)
	r.Post("/orders/{orderID}/pay", h.PaymentPay)
	r.Get("/orders/{orderID}/logs", h.GetOrderLogs)
	r.Post("/callback/{plugin}", h.PaymentCallback)
}

// GetPaymentMethod returns the method descriptor for the checkout method list
func (h *CheckoutHandler) GetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	plugin, ok := h.plugin(chi.URLParam(r, "plugin"))
	if !ok {
		response.Error(w, http.StatusNotFound, "Unknown payment plugin", nil)
		return
	}

	methodID, err := strconv.Atoi(chi.URLParam(r, "methodID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid method ID", err)
		return
	}

	listing := provider.MethodListing{
		ID:   methodID,
		Code: plugin.Name(),
	}
	if err := plugin.OnGetOrderPaymentMethods(ctx, &listing); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to prepare payment method", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment method retrieved", listing)
}

// GetOrderForm returns extra order-form options for a method
func (h *CheckoutHandler) GetOrderForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	plugin, ok := h.plugin(chi.URLParam(r, "plugin"))
	if !ok {
		response.Error(w, http.StatusNotFound, "Unknown payment plugin", nil)
		return
	}

	methodID, err := strconv.Atoi(chi.URLParam(r, "methodID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid method ID", err)
		return
	}

	options, err := plugin.OnGetOrderForm(ctx, methodID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to prepare order form", err)
		return
	}

	response.Success(w, http.StatusOK, "Order form retrieved", options)
}

// CheckOrderPay reports whether the order can be paid with its plugin
func (h *CheckoutHandler) CheckOrderPay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, plugin, done := h.orderWithPlugin(ctx, w, r)
	if done {
		return
	}

	payable := plugin.OnCheckOrderPay(ctx, order)
	response.Success(w, http.StatusOK, "Order pay check completed", map[string]any{
		"payable": payable,
	})
}

// PaymentPay initiates a payment and returns redirect data
func (h *CheckoutHandler) PaymentPay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, plugin, done := h.orderWithPlugin(ctx, w, r)
	if done {
		return
	}

	if !plugin.OnCheckOrderPay(ctx, order) {
		response.Error(w, http.StatusConflict, "Order is not payable", nil)
		return
	}

	result, err := plugin.OnPaymentPay(ctx, order, h.checkoutLinks(plugin.Name()))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Payment initiation failed", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment initiated", result)
}

// GetOrderLogs returns the plugin's entries of the order log trail
func (h *CheckoutHandler) GetOrderLogs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, plugin, done := h.orderWithPlugin(ctx, w, r)
	if done {
		return
	}

	logs := plugin.OnGetOrderLogs(order)
	response.Success(w, http.StatusOK, "Order logs retrieved", logs)
}

// PaymentCallback handles asynchronous gateway notifications. The plugin
// swallows its own failures, so the response is always the plugin's
// acknowledgement body with status 200 and no JSON envelope.
func (h *CheckoutHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	plugin, ok := h.plugin(chi.URLParam(r, "plugin"))
	if !ok {
		response.Error(w, http.StatusNotFound, "Unknown payment plugin", nil)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		raw = nil
	}

	// Signature checks run over the raw body; the parsed map only drives
	// classification and lookups.
	input := map[string]any{}
	_ = json.Unmarshal(raw, &input)

	ack := plugin.OnPaymentCallback(ctx, input, raw)
	response.Plain(w, http.StatusOK, ack)
}

// orderWithPlugin resolves the order from the URL and the plugin its payment
// method references. On failure the response is already written.
func (h *CheckoutHandler) orderWithPlugin(ctx context.Context, w http.ResponseWriter, r *http.Request) (*provider.Order, provider.PaymentPlugin, bool) {
	orderID, err := strconv.Atoi(chi.URLParam(r, "orderID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid order ID", err)
		return nil, nil, true
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Order not found", err)
		return nil, nil, true
	}

	if order.Payment == nil {
		response.Error(w, http.StatusConflict, "Order has no payment method", nil)
		return nil, nil, true
	}

	plugin, ok := h.plugin(order.Payment.Plugin)
	if !ok {
		response.Error(w, http.StatusConflict, "Order references an unknown payment plugin", nil)
		return nil, nil, true
	}

	return order, plugin, false
}

func (h *CheckoutHandler) plugin(name string) (provider.PaymentPlugin, bool) {
	p, ok := h.plugins[name]
	return p, ok
}

// checkoutLinks builds the host URLs handed to a plugin on pay initiation.
func (h *CheckoutHandler) checkoutLinks(pluginName string) provider.Links {
	return provider.Links{
		Callback: h.baseURL + "/v1/callback/" + pluginName,
		Success:  h.baseURL + "/checkout/success",
		Fail:     h.baseURL + "/checkout/fail",
	}
}
