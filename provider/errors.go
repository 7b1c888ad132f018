package provider

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError reports a network or HTTP-layer failure before any gateway
// payload could be interpreted.
type TransportError struct {
	StatusCode int
	Reason     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error %d: %s", e.StatusCode, e.Reason)
}

// GatewayError is an explicit non-zero error code returned by the gateway.
type GatewayError struct {
	Code    int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error %d: %s", e.Code, e.Message)
}

// ValidationError aggregates field-level rejection messages from the gateway,
// one per line.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "\n")
}

// ConfigError reports missing or incomplete payment method configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Reason
}

// ProtocolError reports a violation of the callback verification protocol.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}

// StateError aggregates host order-model failure messages, one per line.
type StateError struct {
	Messages []string
}

func (e *StateError) Error() string {
	return strings.Join(e.Messages, "\n")
}

var (
	// ErrAccess means the credentials for the configured payment type are
	// missing, so the method cannot talk to the gateway.
	ErrAccess = &ConfigError{Reason: "incomplete api access credentials"}

	// ErrPromoCodeNotFound means the selected credit promo code is not in the
	// configured promo-code table.
	ErrPromoCodeNotFound = &ConfigError{Reason: "promo code not found"}

	// ErrOrderNotFound means the callback referenced an order the host does
	// not know.
	ErrOrderNotFound = &ProtocolError{Reason: "order not found"}

	// ErrWrongPlugin means the order's payment method belongs to another
	// plugin.
	ErrWrongPlugin = &ProtocolError{Reason: "order payment method references another plugin"}

	// ErrSignatureInvalid means the inbound callback token did not match the
	// recomputed signature.
	ErrSignatureInvalid = &ProtocolError{Reason: "callback signature mismatch"}

	// ErrOrderMismatch means the gateway-reconfirmed payment references a
	// different order than the callback resolved.
	ErrOrderMismatch = &ProtocolError{Reason: "payment order mismatch"}
)

// IsFatal reports whether err is one of the taxonomy errors that must be
// logged to the order trail. Benign stops (unknown webhook shape, not yet
// paid) are represented by a nil error, never by a taxonomy value.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var (
		te *TransportError
		ge *GatewayError
		ve *ValidationError
		ce *ConfigError
		pe *ProtocolError
		se *StateError
	)
	return errors.As(err, &te) || errors.As(err, &ge) || errors.As(err, &ve) ||
		errors.As(err, &ce) || errors.As(err, &pe) || errors.As(err, &se)
}
