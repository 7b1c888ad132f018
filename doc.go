// Package tinkoffgateway integrates the Tinkoff bank payment gateway into a
// host e-commerce checkout pipeline. It covers both of the bank's products:
// direct card acquiring (Init / CheckOrder with SHA-256 token signing) and
// installment credit brokered through a showcase loan product (Basic-auth
// order create / info).
//
// # Architecture
//
// The repository is organized around a small plugin contract:
//
//	┌──────────────┐     ┌───────────────────┐     ┌──────────────────┐
//	│              │     │                   │     │                  │
//	│  Host / CMS  │◄───►│  PaymentPlugin    │◄───►│  Tinkoff gateway │
//	│  (checkout)  │     │  (provider/...)   │     │  (acquiring or   │
//	│              │     │                   │     │   credit API)    │
//	└──────────────┘     └───────────────────┘     └──────────────────┘
//
// The provider package defines the host-facing contracts: the PaymentPlugin
// hook set, the OrderStore and ParamsStore collaborators, the error taxonomy
// and the shared gateway HTTP client. provider/tinkoff implements the plugin:
// request signing, response parsing and the callback verification chain that
// authenticates asynchronous payment notifications before an order may
// transition to its paid status.
//
// The infra packages back the standalone binary: SQLite order and params
// storage, structured logging with an optional OpenSearch sink, and the HTTP
// response envelope. A production host replaces them with its own order
// model by implementing the provider contracts.
//
// # Callback Safety
//
// Inbound webhooks are never trusted on their own. An acquiring callback must
// carry a valid token over the raw request body, and the reported state is
// reconfirmed against the gateway with a signed CheckOrder call before
// anything is written. Credit callbacks are reconfirmed through the
// authenticated order info endpoint. The paid transition is idempotent: one
// log entry and at most one status change per payment identifier, no matter
// how many times the gateway redelivers.
//
// # Quick Start
//
//	deps := provider.Deps{
//		Orders: orderStore,
//		Params: config.NewMethodParamsStore(paramsStore),
//		HTTP:   provider.DefaultHTTPClient(),
//		Log:    logger.NewRegistry(systemLogger),
//	}
//	plugin, err := provider.CreatePlugin("tinkoff", deps)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := plugin.OnPaymentPay(ctx, order, links)
//	// redirect the customer to result.Link
package tinkoffgateway
