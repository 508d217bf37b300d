// Package all imports all built-in pbmcp extensions.
// Import this package to register every command and tool group.
package all

import (
	// Each extension registers itself via init()
	_ "github.com/jpl-au/pbmcp/extension/core"
	_ "github.com/jpl-au/pbmcp/extension/email"
	_ "github.com/jpl-au/pbmcp/extension/pb"
	_ "github.com/jpl-au/pbmcp/extension/stripe"
)
