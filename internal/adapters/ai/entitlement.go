package ai

// Entitlements answers which model tiers a caller may use. Constructed at
// process start and injected; tests swap it for their own instance.
type Entitlements struct {
	proCallers map[string]bool
}

// NewEntitlements creates an entitlement checker from the list of callers
// granted pro access.
func NewEntitlements(proCallers []string) *Entitlements {
	pro := make(map[string]bool, len(proCallers))
	for _, c := range proCallers {
		pro[c] = true
	}
	return &Entitlements{proCallers: pro}
}

// TierFor returns the caller's tier.
func (e *Entitlements) TierFor(callerID string) Tier {
	if e.proCallers[callerID] {
		return TierPro
	}
	return TierFree
}

// Allowed reports whether a caller tier may use a model.
func (e *Entitlements) Allowed(caller Tier, model ModelDescriptor) bool {
	if model.Tier == TierPro {
		return caller == TierPro
	}
	return true
}
