package main

import (
	"context"

	"Lodestar/cmd"
	"Lodestar/engine"
	"Lodestar/metadata"
	"Lodestar/providers/comick"
	"Lodestar/providers/mangadex"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// registerProviders registers all available manga source providers and
// metadata services with the engine. A provider that fails to register is
// logged by the engine and excluded; the rest keep running.
func registerProviders(e *engine.Engine) {
	ctx := context.Background()

	_ = e.RegisterProvider(ctx, mangadex.New(e.Client, e.Logger))
	_ = e.RegisterProvider(ctx, comick.New(e.Client, e.Logger))

	_ = e.RegisterMetadataProvider(metadata.NewAniList(e.Client, e.Logger))
	_ = e.RegisterMetadataProvider(metadata.NewJikan(e.Client, e.Logger))
	_ = e.RegisterMetadataProvider(metadata.NewKitsu(e.Client, e.Logger))
}

func main() {
	cmd.SetupVersion(version)

	// Providers are registered once the engine has been built from
	// configuration and flags.
	cmd.SetupRegistration(registerProviders)

	cmd.Execute()
}
