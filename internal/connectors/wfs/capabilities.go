package wfs

import (
	"fmt"
	"strings"

	"github.com/opentrees/wfsget/internal/core/domain"
)

// Root element keys a capabilities document may use, tried in order.
var capabilitiesRootKeys = []string{"WFS_Capabilities", "wfs:WFS_Capabilities"}

// capabilitiesDoc is a parsed GetCapabilities response.
type capabilitiesDoc struct {
	root *node
	ops  *node // OperationsMetadata, nil for 1.0.0 documents
}

func decodeCapabilities(data []byte) (*capabilitiesDoc, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCapabilitiesMalformed, err)
	}

	var root *node
	for _, key := range capabilitiesRootKeys {
		if root = first(doc, key); root != nil {
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: root element is %q, not WFS_Capabilities",
			domain.ErrCapabilitiesMalformed, doc.Children[0].Name)
	}

	return &capabilitiesDoc{root: root, ops: first(root, "OperationsMetadata")}, nil
}

// operation returns the OperationsMetadata/Operation with the given name.
func (c *capabilitiesDoc) operation(name string) *node {
	for _, op := range asSequence(c.ops, "Operation") {
		if op.Attr("name") == name {
			return op
		}
	}
	return nil
}

// parameter finds a named Parameter under the given parents, in order.
func parameter(name string, parents ...*node) *node {
	for _, parent := range parents {
		for _, p := range asSequence(parent, "Parameter") {
			if p.Attr("name") == name {
				return p
			}
		}
	}
	return nil
}

// parameterValues returns Value children, with or without the OWS 1.1
// AllowedValues wrapper.
func parameterValues(p *node) []string {
	var values []string
	for _, v := range asSequence(first(p, "AllowedValues"), "Value") {
		values = append(values, v.Text)
	}
	for _, v := range asSequence(p, "Value") {
		values = append(values, v.Text)
	}
	return values
}

// versions returns the declared versions, highest first.
func (c *capabilitiesDoc) versions() ([]string, error) {
	p := parameter("AcceptVersions", c.operation(requestGetCaps), c.ops)
	if p == nil {
		if v := strings.TrimSpace(c.root.Attr("version")); v != "" {
			return []string{v}, nil
		}
		return nil, fmt.Errorf("%w: no AcceptVersions parameter and no version attribute", domain.ErrVersionUndeclared)
	}

	raw := parameterValues(p)
	if len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		return nil, fmt.Errorf("%w: AcceptVersions has no first value", domain.ErrCapabilitiesMalformed)
	}

	var declared []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			declared = append(declared, v)
		}
	}
	return domain.SortVersionsDesc(declared), nil
}

// implementsPaging looks for ImplementsResultPaging on OperationsMetadata
// and then on the GetFeature operation.
func (c *capabilitiesDoc) implementsPaging() bool {
	for _, parent := range []*node{c.ops, c.operation(requestGetFeature)} {
		for _, constraint := range asSequence(parent, "Constraint") {
			if constraint.Attr("name") != "ImplementsResultPaging" {
				continue
			}
			if dv := first(constraint, "DefaultValue"); dv != nil {
				return dv.Text == "TRUE"
			}
		}
	}
	return false
}

func (c *capabilitiesDoc) supportsHits() bool {
	p := parameter(paramResultType, c.operation(requestGetFeature))
	if p == nil {
		return false
	}
	for _, v := range parameterValues(p) {
		if v == resultTypeHits {
			return true
		}
	}
	return false
}

// ParseCapabilities builds a CapabilityModel from a GetCapabilities response.
// Errors wrap domain.ErrCapabilitiesMalformed or domain.ErrVersionUndeclared.
func ParseCapabilities(data []byte) (domain.CapabilityModel, error) {
	doc, err := decodeCapabilities(data)
	if err != nil {
		return domain.CapabilityModel{}, err
	}
	return doc.model()
}

// model assembles the capability model. The model is always populated with
// whatever the document declares; the error reports an unusable version
// declaration, which a pinned query may choose to ignore.
func (c *capabilitiesDoc) model() (domain.CapabilityModel, error) {
	model := domain.CapabilityModel{
		SupportsPaging:    c.implementsPaging(),
		SupportsHitsCount: c.supportsHits(),
	}
	versions, err := c.versions()
	model.SupportedVersions = versions
	if err != nil {
		return model, err
	}
	if _, ok := model.HighestKnown(); !ok {
		return model, fmt.Errorf("%w: none of %v is a known version", domain.ErrVersionUndeclared, versions)
	}
	return model, nil
}
