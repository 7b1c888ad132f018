package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPlugin struct {
	PaymentPlugin
	name string
}

func (s *stubPlugin) Name() string { return s.name }

func stubFactory(name string) PluginFactory {
	return func(deps Deps) PaymentPlugin {
		return &stubPlugin{name: name}
	}
}

func TestPluginRegistry_Register(t *testing.T) {
	registry := NewPluginRegistry()

	registry.Register("test-plugin", stubFactory("test-plugin"))

	factory, err := registry.Get("test-plugin")
	assert.NoError(t, err)
	assert.NotNil(t, factory)
}

func TestPluginRegistry_PluginNames(t *testing.T) {
	registry := NewPluginRegistry()

	assert.Empty(t, registry.PluginNames())

	registry.Register("plugin1", stubFactory("plugin1"))
	registry.Register("plugin2", stubFactory("plugin2"))

	names := registry.PluginNames()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "plugin1")
	assert.Contains(t, names, "plugin2")
}

func TestPluginRegistry_Get_NotFound(t *testing.T) {
	registry := NewPluginRegistry()

	factory, err := registry.Get("non-existent")
	assert.Error(t, err)
	assert.Nil(t, factory)
	assert.Contains(t, err.Error(), "is not registered")
}

func TestPluginRegistry_CreatePlugin(t *testing.T) {
	registry := NewPluginRegistry()
	registry.Register("test-plugin", stubFactory("test-plugin"))

	plugin, err := registry.CreatePlugin("test-plugin", Deps{})
	assert.NoError(t, err)
	assert.Equal(t, "test-plugin", plugin.Name())

	_, err = registry.CreatePlugin("missing", Deps{})
	assert.Error(t, err)
}

func TestPluginRegistry_RegisterOverwrites(t *testing.T) {
	registry := NewPluginRegistry()
	registry.Register("test-plugin", stubFactory("first"))
	registry.Register("test-plugin", stubFactory("second"))

	plugin, err := registry.CreatePlugin("test-plugin", Deps{})
	assert.NoError(t, err)
	assert.Equal(t, "second", plugin.Name())
}

func TestDefaultRegistry(t *testing.T) {
	Register("default-test", stubFactory("default-test"))

	plugin, err := CreatePlugin("default-test", Deps{})
	assert.NoError(t, err)
	assert.Equal(t, "default-test", plugin.Name())
}

func TestMethodParams_Access(t *testing.T) {
	tests := []struct {
		name      string
		params    MethodParams
		acquiring bool
		credit    bool
	}{
		{
			name: "Acquiring credentials present",
			params: MethodParams{
				TerminalKey:      "key",
				TerminalPassword: "pass",
			},
			acquiring: true,
		},
		{
			name: "Whitespace credentials are absent",
			params: MethodParams{
				TerminalKey:      "key",
				TerminalPassword: "   ",
			},
		},
		{
			name: "Credit credentials present",
			params: MethodParams{
				ShopID:         "shop",
				ShowcaseID:     "showcase",
				ShowcaseSecret: "secret",
			},
			credit: true,
		},
		{
			name: "Partial credit credentials are absent",
			params: MethodParams{
				ShopID:     "shop",
				ShowcaseID: "showcase",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.acquiring, tt.params.HasAcquiringAccess())
			assert.Equal(t, tt.credit, tt.params.HasCreditAccess())
		})
	}
}

func TestMethodParams_Trim(t *testing.T) {
	params := MethodParams{
		TerminalKey:      " key \n",
		TerminalPassword: "\tpass ",
		ShopID:           " shop",
		ShowcaseID:       "showcase ",
		ShowcaseSecret:   " secret ",
	}
	params.Trim()

	assert.Equal(t, "key", params.TerminalKey)
	assert.Equal(t, "pass", params.TerminalPassword)
	assert.Equal(t, "shop", params.ShopID)
	assert.Equal(t, "showcase", params.ShowcaseID)
	assert.Equal(t, "secret", params.ShowcaseSecret)
}

func TestMethodParams_StatusAvailable(t *testing.T) {
	params := MethodParams{StatusesAvailable: []int{1, 3}}

	assert.True(t, params.StatusAvailable(1))
	assert.True(t, params.StatusAvailable(3))
	assert.False(t, params.StatusAvailable(2))
	assert.False(t, params.StatusAvailable(0))
}
