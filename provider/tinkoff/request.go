package tinkoff

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopmart/tinkoff-gateway/infra/config"
	"github.com/shopmart/tinkoff-gateway/provider"
)

// buildAcquiringRequest assembles the signed Init payload for the direct
// card-payment flow.
func (p *Plugin) buildAcquiringRequest(order *provider.Order, links provider.Links, params *provider.MethodParams) (*provider.SignedRequest, error) {
	if !params.HasAcquiringAccess() {
		return nil, provider.ErrAccess
	}

	payload := map[string]any{
		"TerminalKey":     strings.TrimSpace(params.TerminalKey),
		"Amount":          minorUnits(order.Total),
		"OrderId":         fmt.Sprintf("%d_%d", order.ID, time.Now().Unix()),
		"Description":     order.Title,
		"NotificationURL": links.Callback,
		"SuccessURL":      links.Success + "/" + order.Number,
		"FailURL":         links.Fail + "/" + order.Number,
	}

	if order.Receipt != nil {
		payload["Amount"] = order.Receipt.AmountMinor
		payload["Description"] = order.Receipt.Description
	}

	payload["Token"] = Sign(payload, params.TerminalPassword)

	// Contact and receipt blocks are appended after signing; as container
	// values they are outside the signature input either way.
	contacts := map[string]any{}
	if order.Contacts != nil {
		if order.Contacts.Email != "" {
			contacts["Email"] = order.Contacts.Email
		}
		if order.Contacts.Phone != "" {
			contacts["Phone"] = cleanPhone(order.Contacts.Phone)
		}
	}
	if len(contacts) > 0 {
		payload["DATA"] = contacts
	}

	if order.Receipt != nil {
		receipt := map[string]any{
			"Taxation": taxation(params),
		}
		for key, value := range contacts {
			receipt[key] = value
		}

		items := make([]map[string]any, 0, len(order.Receipt.Items))
		for _, item := range order.Receipt.Items {
			items = append(items, map[string]any{
				"Name":          item.Name,
				"Price":         item.PriceMinor,
				"Quantity":      item.Quantity,
				"Amount":        item.AmountMinor,
				"Tax":           item.Tax,
				"PaymentMethod": item.PaymentMethod,
				"PaymentObject": item.PaymentObject,
			})
		}
		receipt["Items"] = items
		payload["Receipt"] = receipt
	}

	return &provider.SignedRequest{
		URL:     p.acquiringBase(params) + endpointInit,
		Payload: payload,
		Headers: map[string]string{},
	}, nil
}

// buildCreditRequest assembles the installment-order payload. Credit
// requests carry no signature; authentication is HTTP Basic on the showcase
// credentials.
func (p *Plugin) buildCreditRequest(order *provider.Order, links provider.Links, params *provider.MethodParams) (*provider.SignedRequest, error) {
	if !params.HasCreditAccess() {
		return nil, provider.ErrAccess
	}

	if _, ok := params.PromoCodes[order.PromoCode]; !ok {
		return nil, provider.ErrPromoCodeNotFound
	}

	orderNumber := order.Number
	if params.TestMode {
		// Repeated sandbox attempts for the same order must not collide on
		// the gateway side.
		orderNumber = fmt.Sprintf("%s%s%d%s", orderNumber, testOrderSeparator, time.Now().Unix(), config.RandomString(4))
	}

	sum := order.Total
	items := make([]map[string]any, 0)
	if order.Receipt != nil {
		sum = float64(order.Receipt.AmountMinor) / 100
		for _, item := range order.Receipt.Items {
			items = append(items, map[string]any{
				"name":     item.Name,
				"price":    float64(item.PriceMinor) / 100,
				"quantity": item.Quantity,
			})
		}
	} else {
		for _, item := range order.Items {
			items = append(items, map[string]any{
				"name":     item.Name,
				"price":    item.Price,
				"quantity": item.Quantity,
			})
		}
		if order.Shipping != nil {
			items = append(items, map[string]any{
				"name":     order.Shipping.Name,
				"price":    order.Shipping.Price,
				"quantity": 1,
			})
		}
	}

	payload := map[string]any{
		"shopId":      params.ShopID,
		"showcaseId":  params.ShowcaseID,
		"sum":         sum,
		"items":       items,
		"orderNumber": orderNumber,
		"promoCode":   order.PromoCode,
		"webhookURL":  links.Callback,
		"successURL":  links.Success + "/" + order.Number,
		"failURL":     links.Fail + "/" + order.Number,
	}

	endpoint := endpointCreditCreate
	if params.TestMode {
		endpoint = endpointCreditCreateDemo
	}

	return &provider.SignedRequest{
		URL:     p.creditBase() + endpoint,
		Payload: payload,
		Headers: map[string]string{
			"Authorization": creditAuthHeader(params),
		},
	}, nil
}

// testOrderSeparator splits the real order number from the sandbox
// collision-avoidance suffix.
const testOrderSeparator = "_||_"

// creditAuthHeader builds the Basic auth header for showcase credentials.
// Sandbox showcases are addressed with a demo- prefix.
func creditAuthHeader(params *provider.MethodParams) string {
	user := strings.TrimSpace(params.ShowcaseID)
	if params.TestMode {
		user = creditDemoShowcasePrefix + user
	}
	credentials := user + ":" + strings.TrimSpace(params.ShowcaseSecret)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

// minorUnits converts a major-unit amount to gateway minor units.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// taxation returns the configured taxation scheme, defaulting to "osn".
func taxation(params *provider.MethodParams) string {
	if params.Taxation == "" {
		return "osn"
	}
	return params.Taxation
}

// cleanPhone strips everything but digits and a leading plus from a contact
// phone number.
func cleanPhone(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
