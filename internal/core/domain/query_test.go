package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestVersion_IsKnown tests the set of negotiable versions
func TestVersion_IsKnown(t *testing.T) {
	assert.True(t, Version100.IsKnown())
	assert.True(t, Version110.IsKnown())
	assert.True(t, Version200.IsKnown())
	assert.False(t, Version("3.0.0").IsKnown())
	assert.False(t, Version("").IsKnown())
}

// TestVersion_ParamNames tests version-specific parameter names
func TestVersion_ParamNames(t *testing.T) {
	assert.Equal(t, ParamNames{TypeName: "typeNames", PageSize: "count"}, Version200.ParamNames())
	assert.Equal(t, ParamNames{TypeName: "typeName", PageSize: "maxFeatures"}, Version110.ParamNames())
	assert.Equal(t, ParamNames{TypeName: "typeName", PageSize: "maxFeatures"}, Version100.ParamNames())
}

// TestCompareVersions tests numeric comparison of dotted versions
func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2.0.0", "1.1.0", 1},
		{"1.0.0", "1.1.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"2.0.0", "2.0.0", 0},
		{"2.0", "2.0.0", 0},
		{" 1.1.0 ", "1.1.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}

// TestSortVersionsDesc tests that declaration order never matters
func TestSortVersionsDesc(t *testing.T) {
	orders := [][]string{
		{"1.0.0", "1.1.0", "2.0.0"},
		{"2.0.0", "1.1.0", "1.0.0"},
		{"1.1.0", "2.0.0", "1.0.0", "2.0.0"},
	}

	for _, in := range orders {
		assert.Equal(t, []string{"2.0.0", "1.1.0", "1.0.0"}, SortVersionsDesc(in))
	}
}
