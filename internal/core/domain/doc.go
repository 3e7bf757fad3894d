// Package domain defines the core entities of the WFS acquisition engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - QuerySpec: One acquisition request
//   - CapabilityModel: What a server declared in GetCapabilities
//   - ResolvedQuery: A QuerySpec after version negotiation
//   - PagingSession: Mutable state of one paging run
//   - AcquisitionResult: The merged document or a typed failure
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
