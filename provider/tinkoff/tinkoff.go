// Package tinkoff integrates the Tinkoff bank payment gateway (acquiring and
// installment-credit flows) into the host checkout pipeline.
package tinkoff

import (
	"context"
	"fmt"

	"github.com/shopmart/tinkoff-gateway/provider"
)

const (
	// PluginName is the name order payment methods reference
	PluginName = "tinkoff"

	// Acquiring API hosts
	acquiringProductionURL = "https://securepay.tinkoff.ru/v2/"
	acquiringSandboxURL    = "https://rest-api-test.tinkoff.ru/v2/"

	// Acquiring endpoints
	endpointInit       = "Init"
	endpointCheckOrder = "CheckOrder"

	// Credit (installment) API
	creditBaseURL            = "https://forma.tinkoff.ru/api/partners/v2"
	endpointCreditCreate     = "/orders/create"
	endpointCreditCreateDemo = "/orders/create-demo"
	endpointCreditInfoFmt    = "/orders/%s/info"
	creditDemoShowcasePrefix = "demo-"

	// Acquiring payment statuses that count as paid
	statusConfirmed  = "CONFIRMED"
	statusAuthorized = "AUTHORIZED"

	// Credit payment status that counts as paid
	statusSigned = "signed"

	// Order log actions
	logActionPaySuccess    = "tinkoff_pay_success"
	logActionPayError      = "tinkoff_pay_error"
	logActionCallbackError = "tinkoff_callback_error"
	logActionPaid          = "tinkoff_paid"

	// Plugin group tag carried by every order log entry
	logGroup = "payment"

	// Logger categories
	categoryPay      = "payment.pay"
	categoryCallback = "payment.callback"
)

// Plugin implements provider.PaymentPlugin for the Tinkoff gateway.
type Plugin struct {
	name   string
	orders provider.OrderStore
	params provider.ParamsStore
	http   *provider.HTTPClient
	log    provider.LogRegistry

	// URL overrides, empty in production
	acquiringURL string
	creditURL    string
}

// NewPlugin creates the Tinkoff payment plugin with its host collaborators.
func NewPlugin(deps provider.Deps) provider.PaymentPlugin {
	httpClient := deps.HTTP
	if httpClient == nil {
		httpClient = provider.DefaultHTTPClient()
	}

	return &Plugin{
		name:   PluginName,
		orders: deps.Orders,
		params: deps.Params,
		http:   httpClient,
		log:    deps.Log,
	}
}

// Name returns the plugin name referenced by order payment methods.
func (p *Plugin) Name() string {
	return p.name
}

// OnGetOrderPaymentMethods prepares a method descriptor for the checkout
// method list. Credentials never travel with the listing.
func (p *Plugin) OnGetOrderPaymentMethods(ctx context.Context, listing *provider.MethodListing) error {
	params, err := p.params.MethodParams(ctx, listing.ID)
	if err != nil {
		listing.Disabled = true
		return nil
	}

	listing.Disabled = !p.methodUsable(params)
	return nil
}

// OnCheckOrderPay reports whether the order can be paid with this plugin:
// the order must reference this plugin, its status must be in the method's
// available set, and the credentials for the configured payment type must be
// present.
func (p *Plugin) OnCheckOrderPay(ctx context.Context, order *provider.Order) bool {
	if !p.checkOrderPlugin(order) {
		return false
	}

	params, err := p.params.MethodParams(ctx, order.Payment.MethodID)
	if err != nil {
		return false
	}

	if order.StatusID == 0 || !params.StatusAvailable(order.StatusID) {
		return false
	}

	return p.methodUsable(params)
}

// OnPaymentPay builds the pay-initiation request for the method's payment
// type, sends it, records the outcome in the order log and returns redirect
// data. Errors are logged to the debug trail and the order log, then
// propagated for the host checkout controller to present.
func (p *Plugin) OnPaymentPay(ctx context.Context, order *provider.Order, links provider.Links) (result *provider.PayResult, err error) {
	log := p.log.Category(categoryPay)

	defer func() {
		if err == nil {
			return
		}
		log.Error("pay initiation failed", err, map[string]any{
			"order_id": order.ID,
		})
		_ = p.orders.AddLog(ctx, order.ID, logActionPayError, map[string]any{
			"plugin": p.name,
			"group":  logGroup,
			"error":  err.Error(),
		})
		err = fmt.Errorf("tinkoff: %w", err)
	}()

	if !p.checkOrderPlugin(order) {
		return nil, provider.ErrWrongPlugin
	}

	params, err := p.params.MethodParams(ctx, order.Payment.MethodID)
	if err != nil {
		return nil, err
	}

	log.Debug("prepare api request data", map[string]any{
		"order_id":     order.ID,
		"payment_type": params.PaymentType,
	})

	var request *provider.SignedRequest
	switch params.PaymentType {
	case provider.TypeCredit:
		request, err = p.buildCreditRequest(order, links, params)
	default:
		request, err = p.buildAcquiringRequest(order, links, params)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("send api request", map[string]any{
		"request_url": request.URL,
	})

	res, err := p.send(ctx, request)
	if err != nil {
		return nil, err
	}

	orderLog := map[string]any{
		"plugin":       p.name,
		"group":        logGroup,
		"payment_type": string(params.PaymentType),
	}

	var link string
	if params.PaymentType == provider.TypeCredit {
		link = res.GetString("link")
	} else {
		orderLog["PaymentId"] = res.GetString("PaymentId")
		link = res.GetString("PaymentURL")
	}

	if err := p.orders.AddLog(ctx, order.ID, logActionPaySuccess, orderLog); err != nil {
		return nil, &provider.StateError{Messages: []string{err.Error()}}
	}

	log.Info("pay initiation succeeded", map[string]any{
		"order_id": order.ID,
		"link":     link,
	})

	return &provider.PayResult{
		PayInstant: true,
		Link:       link,
	}, nil
}

// OnGetOrderLogs returns the plugin's entries of an order log trail.
func (p *Plugin) OnGetOrderLogs(order *provider.Order) []provider.OrderLog {
	var logs []provider.OrderLog
	for _, entry := range order.Logs {
		if plugin, _ := entry.Data["plugin"].(string); plugin == p.name {
			logs = append(logs, entry)
		}
	}
	return logs
}

// OnGetOrderForm returns the promo-code options for a credit method. For
// acquiring methods there is nothing to choose.
func (p *Plugin) OnGetOrderForm(ctx context.Context, methodID int) ([]provider.FormOption, error) {
	params, err := p.params.MethodParams(ctx, methodID)
	if err != nil {
		return nil, err
	}

	if params.PaymentType != provider.TypeCredit {
		return nil, nil
	}

	options := make([]provider.FormOption, 0, len(params.PromoCodes))
	for code, label := range params.PromoCodes {
		options = append(options, provider.FormOption{Value: code, Label: label})
	}
	return options, nil
}

// methodUsable reports whether the credentials for the configured payment
// type are present.
func (p *Plugin) methodUsable(params *provider.MethodParams) bool {
	if params.PaymentType == provider.TypeCredit {
		return params.HasCreditAccess()
	}
	return params.HasAcquiringAccess()
}

// checkOrderPlugin reports whether the order's payment method references
// this plugin.
func (p *Plugin) checkOrderPlugin(order *provider.Order) bool {
	return order != nil && order.Payment != nil && order.Payment.Plugin == p.name
}

// acquiringBase returns the Init/CheckOrder host for the method's
// environment.
func (p *Plugin) acquiringBase(params *provider.MethodParams) string {
	if p.acquiringURL != "" {
		return p.acquiringURL
	}
	if params.TestMode {
		return acquiringSandboxURL
	}
	return acquiringProductionURL
}

// creditBase returns the installment API host.
func (p *Plugin) creditBase() string {
	if p.creditURL != "" {
		return p.creditURL
	}
	return creditBaseURL
}
