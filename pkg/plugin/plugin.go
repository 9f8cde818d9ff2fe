// Package plugin holds the registry of business plugins compiled into the
// binary. Plugins register explicitly at startup; there is no runtime
// discovery and no dynamic loading or unloading.
package plugin

import (
	"context"

	"github.com/toolgate/toolgate/pkg/tool"
)

// Plugin is implemented once per business module. Tools returns the full
// manifest of tools the plugin contributes; it must be stable across calls.
type Plugin interface {
	// ID returns the plugin identifier used for routing and tie-breaking.
	ID() string

	// DisplayName returns a human-readable plugin name.
	DisplayName() string

	// RoutePrefix returns the path prefix under which the plugin's tools
	// are reachable, e.g. "/api/inventory".
	RoutePrefix() string

	// Tools returns the declared tool manifest.
	Tools() []tool.Definition

	// Init is called once at registration, before any tool is dispatched.
	Init(ctx context.Context) error
}
