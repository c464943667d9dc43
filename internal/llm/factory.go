package llm

import (
	"github.com/rotisserie/eris"

	"pasassistant/internal/config"
	"pasassistant/internal/port"
)

// ProviderFactory creates a Completer from a provider config.
type ProviderFactory func(cfg *config.LLMProviderConfig) (port.Completer, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a completion provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewCompleter creates a Completer from a provider config using the registered factory.
// A positive RequestsPerMinute wraps the provider in a RateLimitedCompleter.
func NewCompleter(cfg *config.LLMProviderConfig) (port.Completer, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, eris.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	c, err := factory(cfg)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: create %s provider", cfg.Provider)
	}
	if cfg.RequestsPerMinute > 0 {
		c = NewRateLimitedCompleter(c, cfg.RequestsPerMinute)
	}
	return c, nil
}

// NewFromConfig builds the primary completer and, when a secondary provider is
// configured, chains both behind a FallbackCompleter.
func NewFromConfig(cfg *config.LLMConfig) (port.Completer, error) {
	primary, err := NewCompleter(&cfg.Primary)
	if err != nil {
		return nil, err
	}
	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}
	secondary, err := NewCompleter(secondaryCfg)
	if err != nil {
		return nil, err
	}
	return NewFallbackCompleter(
		[]port.Completer{primary, secondary},
		[]string{cfg.Primary.Provider, secondaryCfg.Provider},
	), nil
}
