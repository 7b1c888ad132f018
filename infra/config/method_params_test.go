package config

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmart/tinkoff-gateway/provider"
)

type mapParamsSource struct {
	params map[int]*provider.MethodParams
}

func (s *mapParamsSource) MethodParams(_ context.Context, methodID int) (*provider.MethodParams, error) {
	params, ok := s.params[methodID]
	if !ok {
		return nil, fmt.Errorf("method params not found")
	}
	return params, nil
}

func TestMethodParamsStore_TrimsCredentials(t *testing.T) {
	source := &mapParamsSource{params: map[int]*provider.MethodParams{
		1: {
			TerminalKey:      "  key  ",
			TerminalPassword: "\tpass\n",
		},
	}}
	store := NewMethodParamsStore(source)

	params, err := store.MethodParams(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "key", params.TerminalKey)
	assert.Equal(t, "pass", params.TerminalPassword)
}

func TestMethodParamsStore_SnapshotIsACopy(t *testing.T) {
	original := &provider.MethodParams{TerminalKey: "  key  ", TerminalPassword: "pw"}
	store := NewMethodParamsStore(&mapParamsSource{params: map[int]*provider.MethodParams{1: original}})

	snapshot, err := store.MethodParams(context.Background(), 1)
	require.NoError(t, err)

	snapshot.TerminalKey = "mutated"
	assert.Equal(t, "  key  ", original.TerminalKey, "the source must not observe snapshot mutations")
}

func TestMethodParamsStore_DefaultsPaymentType(t *testing.T) {
	store := NewMethodParamsStore(&mapParamsSource{params: map[int]*provider.MethodParams{
		1: {TerminalKey: "key", TerminalPassword: "pw"},
	}})

	params, err := store.MethodParams(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, provider.TypeAcquiring, params.PaymentType)
}

func TestMethodParamsStore_RejectsUnknownPaymentType(t *testing.T) {
	store := NewMethodParamsStore(&mapParamsSource{params: map[int]*provider.MethodParams{
		1: {PaymentType: "wire-transfer"},
	}})

	_, err := store.MethodParams(context.Background(), 1)
	require.Error(t, err)

	var ce *provider.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestMethodParamsStore_SourceErrorPassesThrough(t *testing.T) {
	store := NewMethodParamsStore(&mapParamsSource{})

	_, err := store.MethodParams(context.Background(), 7)
	assert.Error(t, err)
}
