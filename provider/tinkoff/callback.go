package tinkoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopmart/tinkoff-gateway/provider"
)

// callbackAck is the only body the gateway ever receives back: it retries on
// anything else, so even internal failures must acknowledge receipt after
// logging.
const callbackAck = "OK"

// OnPaymentCallback authenticates an asynchronous gateway notification,
// re-queries the gateway's own state and, exactly once per payment
// identifier, marks the order paid. It always returns the plain OK
// acknowledgment; operator-visible failure detail goes to the logger and the
// order log.
func (p *Plugin) OnPaymentCallback(ctx context.Context, input map[string]any, raw []byte) string {
	log := p.log.Category(categoryCallback)

	orderID, err := p.handleCallback(ctx, log, Result(input), raw)
	if err != nil {
		log.Error("callback processing failed", err, map[string]any{
			"order_id": orderID,
		})
		if orderID != 0 {
			_ = p.orders.AddLog(ctx, orderID, logActionCallbackError, map[string]any{
				"plugin": p.name,
				"group":  logGroup,
				"error":  err.Error(),
			})
		}
	}

	return callbackAck
}

// handleCallback classifies the inbound payload and dispatches to the flow
// verifier. A nil error with no mutation is a benign stop: unrecognized
// webhook noise or a payment that is simply not paid yet.
func (p *Plugin) handleCallback(ctx context.Context, log provider.CategoryLogger, input Result, raw []byte) (int, error) {
	switch {
	case input.GetString("Status") != "" && input.GetString("PaymentId") != "":
		return p.acquiringCallback(ctx, log, input, raw)
	case input.GetString("id") != "" && input.GetString("status") != "":
		return p.creditCallback(ctx, log, input)
	default:
		log.Debug("unrecognized webhook shape, acknowledging", map[string]any{
			"keys": mapKeys(input),
		})
		return 0, nil
	}
}

// acquiringCallback verifies a card-payment notification.
func (p *Plugin) acquiringCallback(ctx context.Context, log provider.CategoryLogger, input Result, raw []byte) (int, error) {
	paidStatuses := map[string]bool{
		statusConfirmed:  true,
		statusAuthorized: true,
	}

	if !paidStatuses[input.GetString("Status")] {
		log.Debug("callback status is not a paid status, acknowledging", map[string]any{
			"status": input.GetString("Status"),
		})
		return 0, nil
	}

	inOrderID := input.GetString("OrderId")
	if inOrderID == "" {
		return 0, &provider.ProtocolError{Reason: "callback carries no OrderId"}
	}

	orderID, err := strconv.Atoi(strings.SplitN(inOrderID, "_", 2)[0])
	if err != nil {
		return 0, provider.ErrOrderNotFound
	}

	order, err := p.orders.GetOrder(ctx, orderID)
	if err != nil || order == nil {
		return 0, provider.ErrOrderNotFound
	}
	orderID = order.ID

	if !p.checkOrderPlugin(order) {
		return orderID, provider.ErrWrongPlugin
	}

	params, err := p.params.MethodParams(ctx, order.Payment.MethodID)
	if err != nil {
		return orderID, err
	}
	if !params.HasAcquiringAccess() {
		return orderID, provider.ErrAccess
	}
	if params.PaymentType == provider.TypeCredit {
		log.Debug("method is configured for credit, acknowledging acquiring callback", nil)
		return orderID, nil
	}

	// The signature is recomputed over the raw request body, not the decoded
	// input map, so transport-level key order and typing cannot matter.
	var rawBody map[string]any
	if err := json.Unmarshal(raw, &rawBody); err != nil {
		return orderID, &provider.ProtocolError{Reason: "callback body is not a JSON object"}
	}
	if !VerifyToken(rawBody, params.TerminalPassword) {
		return orderID, provider.ErrSignatureInvalid
	}

	// The webhook alone is never trusted: the gateway's current state is
	// authoritative.
	check := map[string]any{
		"TerminalKey": strings.TrimSpace(params.TerminalKey),
		"OrderId":     inOrderID,
	}
	check["Token"] = Sign(check, params.TerminalPassword)

	log.Debug("send check order request", map[string]any{
		"order_id": orderID,
	})
	res, err := p.send(ctx, &provider.SignedRequest{
		URL:     p.acquiringBase(params) + endpointCheckOrder,
		Payload: check,
	})
	if err != nil {
		return orderID, err
	}

	var paymentID, paymentStatus string
	for _, payment := range res.GetList("Payments") {
		if !payment.GetBool("Success") {
			continue
		}
		paymentID = payment.GetString("PaymentId")
		paymentStatus = payment.GetString("Status")
		break
	}

	checkedOrderID, _ := strconv.Atoi(strings.SplitN(res.GetString("OrderId"), "_", 2)[0])
	if checkedOrderID != orderID {
		return orderID, provider.ErrOrderMismatch
	}

	if !paidStatuses[paymentStatus] {
		log.Debug("gateway reports payment not yet paid, acknowledging", map[string]any{
			"status": paymentStatus,
		})
		return orderID, nil
	}

	return orderID, p.markPaid(ctx, log, order, params, map[string]any{
		"plugin":    p.name,
		"group":     logGroup,
		"PaymentId": paymentID,
	})
}

// creditCallback verifies an installment notification.
func (p *Plugin) creditCallback(ctx context.Context, log provider.CategoryLogger, input Result) (int, error) {
	creditOrderID := input.GetString("id")

	// The separator only ever appears on sandbox order numbers.
	number := strings.SplitN(creditOrderID, testOrderSeparator, 2)[0]

	order, err := p.orders.GetOrderByNumber(ctx, number)
	if err != nil || order == nil {
		return 0, provider.ErrOrderNotFound
	}
	orderID := order.ID

	if !p.checkOrderPlugin(order) {
		return orderID, provider.ErrWrongPlugin
	}

	params, err := p.params.MethodParams(ctx, order.Payment.MethodID)
	if err != nil {
		return orderID, err
	}
	if !params.HasCreditAccess() {
		return orderID, provider.ErrAccess
	}
	if params.PaymentType != provider.TypeCredit {
		log.Debug("method is not configured for credit, acknowledging credit callback", nil)
		return orderID, nil
	}

	log.Debug("send credit info request", map[string]any{
		"order_id":        orderID,
		"credit_order_id": creditOrderID,
	})
	res, err := p.get(ctx,
		p.creditBase()+fmt.Sprintf(endpointCreditInfoFmt, creditOrderID),
		map[string]string{"Authorization": creditAuthHeader(params)},
	)
	if err != nil {
		return orderID, err
	}

	if strings.SplitN(res.GetString("id"), testOrderSeparator, 2)[0] != number {
		return orderID, provider.ErrOrderMismatch
	}

	if res.GetString("status") != statusSigned {
		log.Debug("gateway reports credit not yet signed, acknowledging", map[string]any{
			"status": res.GetString("status"),
		})
		return orderID, nil
	}

	return orderID, p.markPaid(ctx, log, order, params, map[string]any{
		"plugin":     p.name,
		"group":      logGroup,
		"id":         res.GetString("id"),
		"created_at": res.GetString("created_at"),
	})
}

// markPaid appends the paid log entry at most once per payment identifier
// and transitions the order to the configured paid status when it is not
// there already.
func (p *Plugin) markPaid(ctx context.Context, log provider.CategoryLogger, order *provider.Order, params *provider.MethodParams, data map[string]any) error {
	if !hasPaidLog(order.Logs, data) {
		if err := p.orders.AddLog(ctx, order.ID, logActionPaid, data); err != nil {
			return &provider.StateError{Messages: []string{err.Error()}}
		}
		paymentRef := data["PaymentId"]
		if paymentRef == nil {
			paymentRef = data["id"]
		}
		log.Info("payment recorded in order log", map[string]any{
			"order_id":   order.ID,
			"payment_id": paymentRef,
		})
	}

	if params.StatusPaid == 0 || order.StatusID == params.StatusPaid {
		return nil
	}

	if err := p.orders.UpdateStatus(ctx, order.ID, params.StatusPaid); err != nil {
		return &provider.StateError{Messages: []string{err.Error()}}
	}

	log.Info("order transitioned to paid status", map[string]any{
		"order_id":  order.ID,
		"status_id": params.StatusPaid,
	})
	return nil
}

// hasPaidLog scans an order's log trail for an entry already recording this
// exact payment. The idempotence key is every identifying field of the
// candidate entry except the plugin and group tags.
func hasPaidLog(logs []provider.OrderLog, data map[string]any) bool {
	for _, entry := range logs {
		if entry.Action != logActionPaid {
			continue
		}
		match := true
		for key, value := range data {
			if key == "plugin" || key == "group" {
				continue
			}
			if fmt.Sprint(entry.Data[key]) != fmt.Sprint(value) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func mapKeys(m Result) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}
