package service

// Exported aliases so the external service_test package can assert on the
// fallback reply prefixes without exporting them from the package API.
const (
	FallbackWithContext = fallbackWithContext
	FallbackNoContext   = fallbackNoContext
)
