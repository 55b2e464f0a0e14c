// Package hostrpc defines the boundary to a native desktop shell. When the
// process runs embedded in a host shell, outbound AI and search calls are
// delegated to the host as opaque commands instead of direct HTTP fetches.
package hostrpc

import "context"

// Invoker executes a named host command with JSON-marshalable args and
// returns the host's raw string payload. A nil Invoker means the process
// runs standalone and talks HTTP directly.
type Invoker func(ctx context.Context, command string, args interface{}) (string, error)

// Command names understood by the host shell.
const (
	CommandAIChat    = "ai_chat"
	CommandWebSearch = "web_search"
)

// defaultInvoker is registered once by an embedding shell before the server
// starts. Standalone builds leave it nil and talk HTTP directly.
var defaultInvoker Invoker

// SetDefault registers the process-wide host invoker. An embedding shell
// calls this from its own main before starting the server.
func SetDefault(inv Invoker) {
	defaultInvoker = inv
}

// Default returns the registered host invoker, or nil when standalone.
func Default() Invoker {
	return defaultInvoker
}
