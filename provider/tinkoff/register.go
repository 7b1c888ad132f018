package tinkoff

import "github.com/shopmart/tinkoff-gateway/provider"

// Register the Tinkoff plugin with the dispatcher registry
func init() {
	provider.Register(PluginName, NewPlugin)
}
