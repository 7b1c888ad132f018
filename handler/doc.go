// Package handler provides the HTTP handlers that expose the checkout
// pipeline hooks of the registered payment plugins.
//
// The CheckoutHandler bridges the HTTP layer with the plugin contract:
//
//	h := handler.NewCheckoutHandler(plugins, orders, baseURL)
//
//	// Routes
//	r.Get("/v1/methods/{plugin}/{methodID}", h.GetPaymentMethod)
//	r.Post("/v1/orders/{orderID}/pay", h.PaymentPay)
//	r.Post("/v1/callback/{plugin}", h.PaymentCallback)
//
// The callback route is special: the gateway retries any response that is
// not a bare 200 OK, so PaymentCallback hands the plugin the raw body for
// signature verification and always writes the plugin's plain-text
// acknowledgement, burying failures in the logs instead of the response.
//
// The LogsHandler exposes the debug trail those handlers write for
// operators: per-category listing with payment id, error and time-range
// filters, backed by the OpenSearch indices. When OpenSearch is not
// configured the log routes answer 503.
package handler
