// ABOUTME: Version constants for the decoder module
// ABOUTME: Used as the instrumentation scope version and in session logs
package version

const (
	// Version is the module release
	Version = "0.3.0"

	// Product is the human-readable name
	Product = "Resonate Decoder"

	// Module is the import path, used as the instrumentation scope name
	Module = "github.com/Resonate-Protocol/resonate-decoder"
)
