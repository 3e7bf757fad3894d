package domain

import (
	"sort"
	"strings"
)

// Version is a WFS protocol version string.
type Version string

// Known WFS versions.
const (
	Version100 Version = "1.0.0"
	Version110 Version = "1.1.0"
	Version200 Version = "2.0.0"
)

// knownVersions is ordered highest first.
var knownVersions = []Version{Version200, Version110, Version100}

// IsKnown reports whether the engine can speak this version.
func (v Version) IsKnown() bool {
	for _, k := range knownVersions {
		if k == v {
			return true
		}
	}
	return false
}

// String returns the version string.
func (v Version) String() string {
	return string(v)
}

// ParamNames returns the version-appropriate GetFeature parameter names.
func (v Version) ParamNames() ParamNames {
	if v == Version200 {
		return ParamNames{TypeName: "typeNames", PageSize: "count"}
	}
	return ParamNames{TypeName: "typeName", PageSize: "maxFeatures"}
}

// ParamNames holds the query parameter names that differ between WFS versions.
type ParamNames struct {
	// TypeName is "typeNames" for 2.0.0 and "typeName" for 1.x.
	TypeName string

	// PageSize is "count" for 2.0.0 and "maxFeatures" for 1.x.
	PageSize string
}

// CompareVersions orders dotted version strings numerically.
// Returns -1, 0 or 1. Non-numeric parts compare lexically.
func CompareVersions(a, b string) int {
	ap := strings.Split(strings.TrimSpace(a), ".")
	bp := strings.Split(strings.TrimSpace(b), ".")
	for i := 0; i < len(ap) || i < len(bp); i++ {
		var x, y string
		if i < len(ap) {
			x = ap[i]
		}
		if i < len(bp) {
			y = bp[i]
		}
		if c := compareVersionPart(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func compareVersionPart(x, y string) int {
	xn, xok := atoi(x)
	yn, yok := atoi(y)
	if xok && yok {
		switch {
		case xn < yn:
			return -1
		case xn > yn:
			return 1
		}
		return 0
	}
	return strings.Compare(x, y)
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// SortVersionsDesc sorts version strings highest first, keeping duplicates out.
func SortVersionsDesc(versions []string) []string {
	seen := make(map[string]bool, len(versions))
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		v = strings.TrimSpace(v)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return CompareVersions(out[i], out[j]) > 0
	})
	return out
}

// QuerySpec describes one acquisition request. It is never mutated after creation.
type QuerySpec struct {
	// SourceID tags log lines and history records (e.g. "groningen").
	SourceID string

	// URL is the GetFeature query URL as supplied by the caller.
	URL string

	// TypeName is the feature type named by the URL's typeName(s) parameter.
	TypeName string

	// SRSName is the requested spatial reference (srsName), may be empty.
	SRSName string

	// OutputDir receives the per-page artifacts.
	OutputDir string

	// MergedPath is where the merged document is written.
	MergedPath string
}

// ResolvedQuery is a QuerySpec plus everything learned during negotiation.
type ResolvedQuery struct {
	Spec QuerySpec

	// Version is the negotiated WFS version.
	Version Version

	// Params are the version-appropriate parameter names.
	Params ParamNames

	// BaseURL is the GetFeature URL rewritten for Version (no paging parameters).
	BaseURL string

	// Capabilities is the parsed server capability model.
	Capabilities CapabilityModel
}
