package wfs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentrees/wfsget/internal/core/domain"
	"github.com/opentrees/wfsget/internal/core/ports/driven"
)

const testURL = "https://example.org/geoserver/wfs?service=WFS&request=GetFeature&typeName=bomen:boom&srsName=EPSG:28992"

// fakeFetcher answers requests through a handler and records every URL.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	handler func(url string) (*driven.Response, error)
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*driven.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	return f.handler(url)
}

func (f *fakeFetcher) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func ok(body string) (*driven.Response, error) {
	return &driven.Response{StatusCode: 200, Body: []byte(body)}, nil
}

func status(code int) (*driven.Response, error) {
	return &driven.Response{StatusCode: code}, nil
}

// capsXML builds a 2.0.0-style capabilities document.
func capsXML(versions []string, paging string, hits bool) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<wfs:WFS_Capabilities xmlns:wfs="http://www.opengis.net/wfs/2.0" xmlns:ows="http://www.opengis.net/ows/1.1" version="2.0.0">
<ows:OperationsMetadata>
<ows:Operation name="GetCapabilities"><ows:Parameter name="AcceptVersions"><ows:AllowedValues>`)
	for _, v := range versions {
		fmt.Fprintf(&b, "<ows:Value>%s</ows:Value>", v)
	}
	b.WriteString(`</ows:AllowedValues></ows:Parameter></ows:Operation>
<ows:Operation name="GetFeature">`)
	if hits {
		b.WriteString(`<ows:Parameter name="resultType"><ows:AllowedValues><ows:Value>results</ows:Value><ows:Value>hits</ows:Value></ows:AllowedValues></ows:Parameter>`)
	}
	b.WriteString(`</ows:Operation>`)
	if paging != "" {
		fmt.Fprintf(&b, `<ows:Constraint name="ImplementsResultPaging"><ows:NoValues/><ows:DefaultValue>%s</ows:DefaultValue></ows:Constraint>`, paging)
	}
	b.WriteString(`</ows:OperationsMetadata></wfs:WFS_Capabilities>`)
	return b.String()
}

// featurePage builds a feature collection page with one member per id.
func featurePage(next string, ids ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<wfs:FeatureCollection xmlns:wfs="http://www.opengis.net/wfs/2.0" xmlns:gml="http://www.opengis.net/gml/3.2" xmlns:bomen="http://bomen.example"`)
	fmt.Fprintf(&b, ` numberReturned="%d"`, len(ids))
	if next != "" {
		fmt.Fprintf(&b, ` next="%s"`, next)
	}
	b.WriteString(">")
	for _, id := range ids {
		fmt.Fprintf(&b, `<wfs:member><bomen:boom gml:id="%s"/></wfs:member>`, id)
	}
	b.WriteString("</wfs:FeatureCollection>")
	return b.String()
}

func hitsXML(attrs string) string {
	return `<?xml version="1.0"?><wfs:FeatureCollection xmlns:wfs="http://www.opengis.net/wfs/2.0" ` + attrs + `/>`
}

const exceptionXML = `<?xml version="1.0" encoding="UTF-8"?>
<ows:ExceptionReport xmlns:ows="http://www.opengis.net/ows/1.1" version="2.0.0">
<ows:Exception exceptionCode="InvalidParameterValue" locator="typeNames">
<ows:ExceptionText>Feature type bomen:boom unknown</ows:ExceptionText>
</ows:Exception>
</ows:ExceptionReport>`

// resolved returns a query negotiated to version v writing into dir.
func resolved(t *testing.T, dir string, v domain.Version) *domain.ResolvedQuery {
	t.Helper()
	base, err := FeatureURL(testURL, v)
	require.NoError(t, err)
	return &domain.ResolvedQuery{
		Spec: domain.QuerySpec{
			SourceID:  "test",
			URL:       testURL,
			TypeName:  "bomen:boom",
			OutputDir: dir,
		},
		Version: v,
		Params:  v.ParamNames(),
		BaseURL: base,
	}
}
