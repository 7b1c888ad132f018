// Package provider defines the contracts between a host checkout pipeline
// and its payment plugins, plus the shared infrastructure plugins build on.
//
// # Core Concepts
//
// The package is built around a few interfaces and types:
//
//   - PaymentPlugin: the hook set a payment integration exposes to the host
//     (method listing, pay initiation, callback handling, order logs)
//   - OrderStore / ParamsStore: the host collaborators a plugin consumes
//   - PluginRegistry: maps plugin names to factories
//   - HTTPClient: the shared outbound gateway transport
//
// # Error Taxonomy
//
// Operations fail with one of six typed errors: TransportError (network or
// non-JSON response), GatewayError (explicit gateway error code),
// ValidationError (field-level gateway rejections), ConfigError (missing or
// invalid method configuration), ProtocolError (callback verification
// violations) and StateError (host order-model failures). Sentinel values
// such as ErrSignatureInvalid and ErrOrderMismatch allow errors.Is checks
// across wrapping.
//
// # Basic Usage
//
//	deps := provider.Deps{Orders: orders, Params: params, HTTP: provider.DefaultHTTPClient(), Log: logs}
//	plugin, err := provider.CreatePlugin("tinkoff", deps)
//	if err != nil {
//	    return err
//	}
//	result, err := plugin.OnPaymentPay(ctx, order, links)
package provider
