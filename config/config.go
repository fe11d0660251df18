// Package config holds the CLI-wide settings bound to persistent flags.
// Commands read these globals after cobra has parsed the command line.
package config

import "time"

// Endpoint is the wallet backend to dial. Supported schemes: ws, wss, tcp
// and unix.
var Endpoint string

var (
	// Timeout bounds every request a command sends to the backend.
	Timeout time.Duration

	// Verbose raises the log level from warn to trace.
	Verbose bool

	// JSONOutput switches command output from human-readable rendering to
	// bare JSON on stdout.
	JSONOutput bool
)
