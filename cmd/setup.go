package cmd

import "Lodestar/engine"

// SetupEngine makes a pre-built engine available to all command handlers
func SetupEngine(e *engine.Engine) {
	appEngine = e
}

// SetupRegistration stores the provider registration hook run once the
// engine has been built from configuration and flags
func SetupRegistration(fn func(*engine.Engine)) {
	registerFn = fn
}

// SetupVersion sets the version for all commands
func SetupVersion(v string) {
	version = v
	rootCmd.Version = v
}
