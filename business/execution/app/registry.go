package app

import (
	"fmt"
	"sort"
	"strings"

	oddsDomain "github.com/mvickers/surebet/business/odds/domain"
)

// Capability is the set of operations one provider supports. Canceller is nil
// when the provider cannot cancel placed bets.
type Capability struct {
	Placer    BetPlacer
	Canceller BetCanceller
}

// CanCancel reports whether the provider supports bet cancellation.
func (c Capability) CanCancel() bool { return c.Canceller != nil }

// Registry maps providers to their capabilities. Dispatch goes through an
// explicit lookup; an unknown provider is a configuration error caught by
// Validate before any execution starts, never a mid-transaction surprise.
type Registry struct {
	caps map[oddsDomain.ProviderID]Capability
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{caps: make(map[oddsDomain.ProviderID]Capability)}
}

// Register binds a provider to its capabilities.
func (r *Registry) Register(provider oddsDomain.ProviderID, capability Capability) error {
	if capability.Placer == nil {
		return fmt.Errorf("registry: provider %s registered without a placer", provider)
	}
	if _, dup := r.caps[provider]; dup {
		return fmt.Errorf("registry: provider %s registered twice", provider)
	}
	r.caps[provider] = capability
	return nil
}

// Lookup returns the capability set for a provider.
func (r *Registry) Lookup(provider oddsDomain.ProviderID) (Capability, bool) {
	capability, ok := r.caps[provider]
	return capability, ok
}

// Validate checks that every given provider has a registered placement
// capability. Called at startup with the full configured provider set.
func (r *Registry) Validate(providers []oddsDomain.ProviderID) error {
	var missing []string
	for _, p := range providers {
		if _, ok := r.caps[p]; !ok {
			missing = append(missing, p.String())
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("registry: no placement capability for provider(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
