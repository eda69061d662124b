package protocol

import "github.com/singer-io/tap-stripe/types"

// Driver is the connector contract the protocol commands run against.
type Driver interface {
	GetConfigRef() any
	Spec() map[string]any
	Setup() error
	Type() string
	Discover() (*types.Catalog, error)
	Sync(catalog *types.Catalog, state *types.State) error
}
