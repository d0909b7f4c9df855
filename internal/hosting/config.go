package hosting

import "fmt"

// Config holds the hosting provider connection settings, populated from
// the top-level service configuration (host.provider, host.token, etc.).
type Config struct {
	// Provider selects which implementation to use: "github" or "gitlab".
	Provider string
	// Token authenticates API calls.
	Token string
	// BaseURL overrides the default API endpoint, for GitHub Enterprise or
	// a self-hosted GitLab instance. Empty uses the public host.
	BaseURL string
	Owner   string
	Repo    string
}

// NewProviderFunc constructs a Provider from Config. Registered by the
// github and gitlab subpackages at init time to avoid an import cycle
// between hosting and its implementations.
type NewProviderFunc func(cfg Config) (Provider, error)

var providerConstructors = map[ProviderType]NewProviderFunc{}

// RegisterProvider registers a provider constructor. Called from init() in
// the github/ and gitlab/ subpackages.
func RegisterProvider(providerType ProviderType, constructor NewProviderFunc) {
	providerConstructors[providerType] = constructor
}

// NewProvider builds the configured Provider. cfg.Provider must name a
// registered provider; there is no remote-URL auto-detection, since a
// running service has no local git checkout to inspect.
func NewProvider(cfg Config) (Provider, error) {
	pt := ProviderType(cfg.Provider)
	constructor, ok := providerConstructors[pt]
	if !ok {
		return nil, fmt.Errorf("no hosting provider registered for %q (registered: %v)", cfg.Provider, registeredProviders())
	}
	return constructor(cfg)
}

func registeredProviders() []ProviderType {
	var providers []ProviderType
	for pt := range providerConstructors {
		providers = append(providers, pt)
	}
	return providers
}
