package domain

// CapabilityModel is what a GetCapabilities response tells us about a server.
// Built once per acquisition by the negotiator and read-only afterwards.
type CapabilityModel struct {
	// SupportedVersions lists declared versions, highest first.
	SupportedVersions []string

	// SupportsPaging is true when ImplementsResultPaging defaults to TRUE.
	SupportsPaging bool

	// SupportsHitsCount is true when GetFeature accepts resultType=hits.
	SupportsHitsCount bool
}

// Supports reports whether v was declared by the server.
func (c CapabilityModel) Supports(v Version) bool {
	for _, s := range c.SupportedVersions {
		if s == string(v) {
			return true
		}
	}
	return false
}

// HighestKnown returns the first declared version the engine can speak.
func (c CapabilityModel) HighestKnown() (Version, bool) {
	for _, s := range c.SupportedVersions {
		if v := Version(s); v.IsKnown() {
			return v, true
		}
	}
	return "", false
}
