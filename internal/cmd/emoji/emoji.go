// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols shared by the commands.
const (
	// Success marks a completed operation: an account created, a seed applied.
	Success = "✓"

	// Error marks a failed operation.
	Error = "✗"

	// Stop marks a shutdown in progress.
	Stop = "■"

	// Warning marks a non-fatal problem, such as seeding an in-memory store.
	Warning = "!"

	// Rocket marks a server that started listening.
	Rocket = "🚀"
)
