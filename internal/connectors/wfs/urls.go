package wfs

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/opentrees/wfsget/internal/core/domain"
)

// KVP parameter names. WFS treats them case-insensitively.
const (
	paramService      = "service"
	paramVersion      = "version"
	paramRequest      = "request"
	paramTypeName     = "typeName"
	paramTypeNames    = "typeNames"
	paramSRSName      = "srsName"
	paramCount        = "count"
	paramMaxFeatures  = "maxFeatures"
	paramStartIndex   = "startIndex"
	paramResultType   = "resultType"
	requestGetFeature = "GetFeature"
	requestGetCaps    = "GetCapabilities"
	resultTypeHits    = "hits"
)

// kvp is one raw key=value pair, kept exactly as the caller wrote it.
type kvp struct {
	key   string
	value string
}

// query is a URL split into an untouched prefix and an ordered parameter list.
// Values are not re-encoded, so type names like "geo-data:Bomen+gemeente"
// reach the server byte-for-byte.
type query struct {
	base     string
	params   []kvp
	fragment string
}

func parseQuery(raw string) (*query, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host")
	}

	q := &query{}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		q.fragment = raw[i+1:]
		raw = raw[:i]
	}
	base, rawQuery, _ := strings.Cut(raw, "?")
	q.base = base
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		q.params = append(q.params, kvp{key: k, value: v})
	}
	return q, nil
}

func (q *query) index(key string) int {
	for i, p := range q.params {
		if strings.EqualFold(p.key, key) {
			return i
		}
	}
	return -1
}

// get returns the decoded value of key, or "".
func (q *query) get(key string) string {
	i := q.index(key)
	if i < 0 {
		return ""
	}
	v, err := url.QueryUnescape(q.params[i].value)
	if err != nil {
		return q.params[i].value
	}
	return v
}

func (q *query) has(key string) bool {
	return q.index(key) >= 0
}

// set replaces key in place (case-insensitively) or appends it.
// The raw value is written as given.
func (q *query) set(key, rawValue string) {
	i := q.index(key)
	if i < 0 {
		q.params = append(q.params, kvp{key: key, value: rawValue})
		return
	}
	q.params[i] = kvp{key: key, value: rawValue}
	q.dropAfter(i, key)
}

// rename moves the value of any of from to key, keeping its position.
func (q *query) rename(key string, from ...string) {
	for _, f := range from {
		if i := q.index(f); i >= 0 {
			q.params[i].key = key
			q.dropAfter(i, key)
			for _, other := range from {
				q.dropAfter(i, other)
			}
			return
		}
	}
}

// del removes every occurrence of the given keys.
func (q *query) del(keys ...string) {
	out := q.params[:0]
	for _, p := range q.params {
		drop := false
		for _, k := range keys {
			if strings.EqualFold(p.key, k) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, p)
		}
	}
	q.params = out
}

func (q *query) dropAfter(i int, key string) {
	out := q.params[:i+1]
	for _, p := range q.params[i+1:] {
		if !strings.EqualFold(p.key, key) {
			out = append(out, p)
		}
	}
	q.params = out
}

func (q *query) String() string {
	var b strings.Builder
	b.WriteString(q.base)
	for i, p := range q.params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}
	if q.fragment != "" {
		b.WriteByte('#')
		b.WriteString(q.fragment)
	}
	return b.String()
}

// CapabilitiesURL turns a GetFeature URL into its GetCapabilities URL.
// With stripVersion the version parameter is removed so the server answers
// with its own preferred (usually highest) version.
func CapabilitiesURL(featureURL string, stripVersion bool) (string, error) {
	q, err := parseQuery(featureURL)
	if err != nil {
		return "", err
	}
	q.set(paramRequest, requestGetCaps)
	if stripVersion {
		q.del(paramVersion)
	}
	return q.String(), nil
}

// DeclaredVersion returns the version parameter of a URL, or "".
func DeclaredVersion(rawURL string) string {
	q, err := parseQuery(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(q.get(paramVersion))
}

// FeatureURL rewrites a GetFeature URL for version v: explicit version,
// version-appropriate type name parameter, and no paging or result-type
// parameters left over from the caller.
func FeatureURL(featureURL string, v domain.Version) (string, error) {
	q, err := parseQuery(featureURL)
	if err != nil {
		return "", err
	}
	names := v.ParamNames()
	if !q.has(paramService) {
		q.set(paramService, "WFS")
	}
	q.set(paramVersion, v.String())
	q.set(paramRequest, requestGetFeature)
	q.rename(names.TypeName, paramTypeNames, paramTypeName)
	q.del(paramCount, paramMaxFeatures, paramStartIndex, paramResultType)
	return q.String(), nil
}

// PageURL adds the page-size and startIndex parameters to a resolved base URL.
func PageURL(baseURL, pageSizeParam string, pageSize, startIndex int) string {
	q, err := parseQuery(baseURL)
	if err != nil {
		return baseURL
	}
	q.set(pageSizeParam, strconv.Itoa(pageSize))
	q.set(paramStartIndex, strconv.Itoa(startIndex))
	return q.String()
}

// HitsURL asks for the result count only.
func HitsURL(baseURL string) string {
	q, err := parseQuery(baseURL)
	if err != nil {
		return baseURL
	}
	q.set(paramResultType, resultTypeHits)
	return q.String()
}

// ParseQuerySpec builds a QuerySpec from a GetFeature URL. The type name and
// SRS are read from the URL; the source ID defaults to the type name.
func ParseQuerySpec(rawURL, outputDir, mergedPath string) (domain.QuerySpec, error) {
	q, err := parseQuery(rawURL)
	if err != nil {
		return domain.QuerySpec{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	if req := q.get(paramRequest); req != "" && !strings.EqualFold(req, requestGetFeature) {
		return domain.QuerySpec{}, fmt.Errorf("%w: request must be GetFeature, got %q", domain.ErrInvalidQuery, req)
	}

	typeName := q.get(paramTypeNames)
	if typeName == "" {
		typeName = q.get(paramTypeName)
	}
	if strings.TrimSpace(typeName) == "" {
		return domain.QuerySpec{}, fmt.Errorf("%w: missing typeName", domain.ErrInvalidQuery)
	}

	return domain.QuerySpec{
		SourceID:   SourceIDFromTypeName(typeName),
		URL:        strings.TrimSpace(rawURL),
		TypeName:   typeName,
		SRSName:    q.get(paramSRSName),
		OutputDir:  outputDir,
		MergedPath: mergedPath,
	}, nil
}

// SourceIDFromTypeName derives a short, filesystem-safe tag from a type name:
// "geo-data:Bomen gemeente Groningen" becomes "bomen-gemeente-groningen".
func SourceIDFromTypeName(typeName string) string {
	if _, local, ok := strings.Cut(typeName, ":"); ok {
		typeName = local
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(typeName) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
