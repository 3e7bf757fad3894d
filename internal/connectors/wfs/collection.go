package wfs

import (
	"fmt"
	"strconv"
	"strings"
)

// Root element keys a feature collection may use.
var featureCollectionRootKeys = []string{"wfs:FeatureCollection", "FeatureCollection"}

func isFeatureCollection(root *node) bool {
	for _, key := range featureCollectionRootKeys {
		if root.Name == key {
			return true
		}
	}
	return false
}

// describeNonCollection explains why a response is not a feature collection,
// quoting the server's exception text when it sent one.
func describeNonCollection(body []byte, root *node) error {
	if root.Local() == "ExceptionReport" || root.Local() == "ServiceExceptionReport" {
		if text := exceptionText(body); text != "" {
			return fmt.Errorf("server exception: %s", text)
		}
		return fmt.Errorf("server exception report without text")
	}
	return fmt.Errorf("root element is %q, not a FeatureCollection", root.Name)
}

// exceptionText collects ExceptionText (OWS) or ServiceException (WFS 1.0.0)
// contents from an exception report.
func exceptionText(body []byte) string {
	doc, err := parseDocument(body)
	if err != nil {
		return ""
	}
	var texts []string
	for _, report := range doc.Children {
		for _, exc := range asSequence(report, "Exception") {
			for _, t := range asSequence(exc, "ExceptionText") {
				texts = append(texts, t.Text)
			}
		}
		for _, exc := range asSequence(report, "ServiceException") {
			texts = append(texts, exc.Text)
		}
	}
	return strings.Join(texts, "; ")
}

// intAttr parses a numeric root attribute. Missing or non-numeric values
// (WFS 2.0.0 allows numberMatched="unknown") report ok=false.
func intAttr(root *node, name string) (int, bool) {
	raw := strings.TrimSpace(root.Attr(name))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// truncated reports whether a final response holds fewer features than the
// server says match, starting at startIndex.
func truncated(root *node, startIndex int) (matched, returned int, short bool) {
	matched, okM := intAttr(root, "numberMatched")
	returned, okR := intAttr(root, "numberReturned")
	if !okM || !okR {
		return matched, returned, false
	}
	return matched, returned, matched > startIndex+returned
}
