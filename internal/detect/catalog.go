package detect

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog is the static set of object class labels the engine can count.
// It is resolved and validated at configuration time; an unknown configured
// label is rejected up front rather than checked per detection.
type Catalog struct {
	labels map[string]struct{}
}

// defaultLabels is the class list of the bundled detection model.
var defaultLabels = []string{
	"person", "bicycle", "car", "motorcycle", "bus", "truck",
	"train", "boat", "cat", "dog", "bird",
}

// NewCatalog builds a catalog from a label list. Labels are matched
// case-insensitively.
func NewCatalog(labels []string) *Catalog {
	c := &Catalog{labels: make(map[string]struct{}, len(labels))}
	for _, l := range labels {
		c.labels[strings.ToLower(l)] = struct{}{}
	}
	return c
}

// DefaultCatalog returns the catalog for the bundled detection model.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultLabels)
}

// Resolve returns the canonical (lowercase) form of a label, or an error
// naming the known labels when the catalog cannot resolve it.
func (c *Catalog) Resolve(label string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	if _, ok := c.labels[key]; !ok {
		return "", fmt.Errorf("unknown object type %q (known: %s)", label, strings.Join(c.Labels(), ", "))
	}
	return key, nil
}

// Labels returns the known labels, sorted.
func (c *Catalog) Labels() []string {
	out := make([]string, 0, len(c.labels))
	for l := range c.labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
