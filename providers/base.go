package providers

import (
	"context"

	"Lodestar/pkg/errors"
)

// Info carries the static identity and capability flags of a provider.
type Info struct {
	ID          string
	Name        string
	Description string
	SiteURL     string

	SupportsPopular bool
	SupportsLatest  bool
	NeedsProxy      bool
}

// Base provides the identity boilerplate for implementing providers. It
// carries no network state; concrete providers keep their own handle to
// the engine services. The availability flag is flipped during startup
// registration and read-only afterwards.
type Base struct {
	info      Info
	available bool
}

// NewBase creates the embedded identity base from static info.
func NewBase(info Info) Base {
	return Base{info: info}
}

func (b *Base) ID() string            { return b.info.ID }
func (b *Base) Name() string          { return b.info.Name }
func (b *Base) Description() string   { return b.info.Description }
func (b *Base) SiteURL() string       { return b.info.SiteURL }
func (b *Base) SupportsPopular() bool { return b.info.SupportsPopular }
func (b *Base) SupportsLatest() bool  { return b.info.SupportsLatest }
func (b *Base) NeedsProxy() bool      { return b.info.NeedsProxy }
func (b *Base) Available() bool       { return b.available }

// SetAvailable marks the provider usable; called once registration has
// initialized it successfully.
func (b *Base) SetAvailable(v bool) { b.available = v }

// Initialize is a no-op by default; providers with setup work override it.
func (b *Base) Initialize(ctx context.Context) error { return nil }

// Popular is unsupported unless the concrete provider overrides it.
func (b *Base) Popular(ctx context.Context, page int) ([]Manga, error) {
	return nil, errors.ErrUnsupported
}

// Latest is unsupported unless the concrete provider overrides it.
func (b *Base) Latest(ctx context.Context, page int) ([]Manga, error) {
	return nil, errors.ErrUnsupported
}
