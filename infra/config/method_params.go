package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopmart/tinkoff-gateway/provider"
)

// methodParamsRules mirrors the fields of provider.MethodParams that carry
// structural constraints; the snapshot is validated through it on every load.
type methodParamsRules struct {
	PaymentType string `validate:"omitempty,oneof=acquiring credit"`
	StatusPaid  int    `validate:"gte=0"`
}

// MethodParamsStore wraps any raw params source with the loading contract
// plugins rely on: a fresh read-only snapshot per request, credentials
// trimmed, structure validated.
type MethodParamsStore struct {
	source   provider.ParamsStore
	validate *validator.Validate
}

// NewMethodParamsStore creates the validating params store.
func NewMethodParamsStore(source provider.ParamsStore) *MethodParamsStore {
	return &MethodParamsStore{
		source:   source,
		validate: App().Validator,
	}
}

// MethodParams loads, trims and validates the configuration snapshot for a
// payment method.
func (s *MethodParamsStore) MethodParams(ctx context.Context, methodID int) (*provider.MethodParams, error) {
	params, err := s.source.MethodParams(ctx, methodID)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, &provider.ConfigError{Reason: fmt.Sprintf("no params for payment method %d", methodID)}
	}

	snapshot := *params
	snapshot.Trim()

	if snapshot.PaymentType == "" {
		snapshot.PaymentType = provider.TypeAcquiring
	}

	rules := methodParamsRules{
		PaymentType: string(snapshot.PaymentType),
		StatusPaid:  snapshot.StatusPaid,
	}
	if err := s.validate.Struct(rules); err != nil {
		return nil, &provider.ConfigError{Reason: fmt.Sprintf("invalid params for payment method %d: %v", methodID, err)}
	}

	return &snapshot, nil
}
