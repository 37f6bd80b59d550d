// Package ens stubs reverse ENS name resolution for player addresses.
// Real resolution (an ENS registry contract call per address against
// cfg.ENSRPCURL) is out of scope for this server; the Resolver
// interface exists so the Edge API's /api/ens/resolve route contract
// is honored today and a real resolver can be dropped in behind it
// later without touching the handler.
package ens

import "context"

// Resolver maps addresses to their primary ENS name, when known.
type Resolver interface {
	ResolveBatch(ctx context.Context, addresses []string) map[string]string
}

// NopResolver reports every address as unresolved.
type NopResolver struct{}

func (NopResolver) ResolveBatch(ctx context.Context, addresses []string) map[string]string {
	return map[string]string{}
}
