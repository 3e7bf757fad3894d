package wfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentrees/wfsget/internal/core/domain"
)

func TestParseCapabilities_VersionOrderIndependent(t *testing.T) {
	orders := [][]string{
		{"1.0.0", "1.1.0", "2.0.0"},
		{"2.0.0", "1.1.0", "1.0.0"},
		{"1.1.0", "2.0.0", "1.0.0"},
	}

	for _, versions := range orders {
		model, err := ParseCapabilities([]byte(capsXML(versions, "TRUE", true)))
		require.NoError(t, err)

		v, ok := model.HighestKnown()
		require.True(t, ok)
		assert.Equal(t, domain.Version200, v)
		assert.Equal(t, []string{"2.0.0", "1.1.0", "1.0.0"}, model.SupportedVersions)
	}
}

func TestParseCapabilities_ValuesWithoutAllowedValuesWrapper(t *testing.T) {
	doc := `<WFS_Capabilities version="1.1.0" xmlns:ows="http://www.opengis.net/ows">
<ows:OperationsMetadata>
<ows:Operation name="GetCapabilities">
<ows:Parameter name="AcceptVersions"><ows:Value>1.0.0</ows:Value><ows:Value>1.1.0</ows:Value></ows:Parameter>
</ows:Operation>
<ows:Operation name="GetFeature">
<ows:Parameter name="resultType"><ows:Value>results</ows:Value><ows:Value>hits</ows:Value></ows:Parameter>
</ows:Operation>
</ows:OperationsMetadata>
</WFS_Capabilities>`

	model, err := ParseCapabilities([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"1.1.0", "1.0.0"}, model.SupportedVersions)
	assert.True(t, model.SupportsHitsCount)
	assert.False(t, model.SupportsPaging)
}

func TestParseCapabilities_SingleVersion(t *testing.T) {
	model, err := ParseCapabilities([]byte(capsXML([]string{"1.1.0"}, "", false)))
	require.NoError(t, err)

	v, ok := model.HighestKnown()
	require.True(t, ok)
	assert.Equal(t, domain.Version110, v)
}

func TestParseCapabilities_EmptyFirstVersion(t *testing.T) {
	_, err := ParseCapabilities([]byte(capsXML([]string{""}, "TRUE", true)))
	assert.ErrorIs(t, err, domain.ErrCapabilitiesMalformed)
}

func TestParseCapabilities_NoAcceptVersions(t *testing.T) {
	t.Run("falls back to root version attribute", func(t *testing.T) {
		doc := `<WFS_Capabilities version="1.0.0"><Service><Name>WFS</Name></Service></WFS_Capabilities>`
		model, err := ParseCapabilities([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, []string{"1.0.0"}, model.SupportedVersions)
	})

	t.Run("undeclared without version attribute", func(t *testing.T) {
		doc := `<WFS_Capabilities><Service><Name>WFS</Name></Service></WFS_Capabilities>`
		_, err := ParseCapabilities([]byte(doc))
		assert.ErrorIs(t, err, domain.ErrVersionUndeclared)
	})
}

func TestParseCapabilities_UnknownVersionsOnly(t *testing.T) {
	_, err := ParseCapabilities([]byte(capsXML([]string{"3.0.0"}, "TRUE", true)))
	assert.ErrorIs(t, err, domain.ErrVersionUndeclared)
}

func TestParseCapabilities_RootKeys(t *testing.T) {
	t.Run("prefixed root", func(t *testing.T) {
		_, err := ParseCapabilities([]byte(capsXML([]string{"2.0.0"}, "TRUE", true)))
		assert.NoError(t, err)
	})

	t.Run("unprefixed root", func(t *testing.T) {
		_, err := ParseCapabilities([]byte(`<WFS_Capabilities version="2.0.0"/>`))
		assert.NoError(t, err)
	})

	t.Run("wrong root", func(t *testing.T) {
		_, err := ParseCapabilities([]byte(exceptionXML))
		assert.ErrorIs(t, err, domain.ErrCapabilitiesMalformed)
	})

	t.Run("not xml", func(t *testing.T) {
		_, err := ParseCapabilities([]byte("Service Unavailable"))
		assert.ErrorIs(t, err, domain.ErrCapabilitiesMalformed)
	})
}

func TestParseCapabilities_Paging(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"true", "TRUE", true},
		{"false", "FALSE", false},
		{"case sensitive", "true", false},
		{"absent", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := ParseCapabilities([]byte(capsXML([]string{"2.0.0"}, tt.value, true)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, model.SupportsPaging)
		})
	}
}

func TestParseCapabilities_PagingOnGetFeatureOperation(t *testing.T) {
	doc := `<wfs:WFS_Capabilities xmlns:wfs="http://www.opengis.net/wfs/2.0" xmlns:ows="http://www.opengis.net/ows/1.1" version="2.0.0">
<ows:OperationsMetadata>
<ows:Operation name="GetFeature">
<ows:Constraint name="ImplementsResultPaging"><ows:NoValues/><ows:DefaultValue>TRUE</ows:DefaultValue></ows:Constraint>
</ows:Operation>
</ows:OperationsMetadata>
</wfs:WFS_Capabilities>`

	model, err := ParseCapabilities([]byte(doc))
	require.NoError(t, err)
	assert.True(t, model.SupportsPaging)
}

func TestParseCapabilities_Hits(t *testing.T) {
	with, err := ParseCapabilities([]byte(capsXML([]string{"2.0.0"}, "TRUE", true)))
	require.NoError(t, err)
	assert.True(t, with.SupportsHitsCount)

	without, err := ParseCapabilities([]byte(capsXML([]string{"2.0.0"}, "TRUE", false)))
	require.NoError(t, err)
	assert.False(t, without.SupportsHitsCount)
}

func TestParseCapabilities_Latin1(t *testing.T) {
	doc := `<?xml version="1.0" encoding="ISO-8859-1"?>` +
		"<WFS_Capabilities version=\"1.1.0\"><Service><Title>Gemeente Caf\xe9</Title></Service></WFS_Capabilities>"

	model, err := ParseCapabilities([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.0"}, model.SupportedVersions)
}
