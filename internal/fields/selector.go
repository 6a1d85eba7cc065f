// Package fields implements the policy-driven projection of a document to
// the ordered subset of fields that get signed. It has no notion of bytes
// or cryptography; internal/canonical turns its output into signed bytes.
package fields

import (
	"fmt"
	"sort"

	"github.com/EnactProtocol/security-go/internal/canonical"
)

// Config describes one field the selector knows how to reason about.
type Config struct {
	Name             string
	Required         bool
	SecurityCritical bool
	Description      string
}

// EnactDefaults is the built-in "security-critical" field set for Enact
// tool manifests.
var EnactDefaults = []Config{
	{Name: "annotations", SecurityCritical: true},
	{Name: "command", Required: true, SecurityCritical: true},
	{Name: "description", Required: true, SecurityCritical: true},
	{Name: "enact", SecurityCritical: true},
	{Name: "env", SecurityCritical: true},
	{Name: "from", SecurityCritical: true},
	{Name: "inputSchema", SecurityCritical: true},
	{Name: "name", Required: true, SecurityCritical: true},
	{Name: "timeout", SecurityCritical: true},
	{Name: "version", SecurityCritical: true},
}

// GenericDefaults is the built-in field set for non-Enact structured
// records.
var GenericDefaults = []Config{
	{Name: "id", Required: true, SecurityCritical: true},
	{Name: "content", Required: true, SecurityCritical: true},
	{Name: "timestamp", Required: true, SecurityCritical: true},
	{Name: "metadata"},
}

// MissingRequiredError reports that a field required by the active default
// set, and selected for signing, was absent or empty in the document.
type MissingRequiredError struct {
	Field string
}

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("fields: missing required field %q", e.Field)
}

// Selection is the result of projecting a document: the ordered set of
// field names that were selected (post include/exclude resolution, before
// checking which are actually present in the document).
type Selection struct {
	Names []string
}

// SelectNames computes the sorted, de-duplicated set of field names that
// options selects against activeDefaults, without consulting a document.
// This is what GetSignedFields reports: the names the active configuration
// would sign, independent of whether any particular document carries them.
func SelectNames(includeFields, excludeFields, additionalCriticalFields []string, activeDefaults []Config) Selection {
	var names []string
	if includeFields != nil {
		names = dedupe(includeFields)
	} else {
		seen := make(map[string]bool)
		for _, c := range activeDefaults {
			if c.SecurityCritical {
				names = append(names, c.Name)
				seen[c.Name] = true
			}
		}
		for _, extra := range additionalCriticalFields {
			if !seen[extra] {
				names = append(names, extra)
				seen[extra] = true
			}
		}
	}

	excluded := make(map[string]bool, len(excludeFields))
	for _, e := range excludeFields {
		excluded[e] = true
	}
	var kept []string
	for _, n := range names {
		if !excluded[n] {
			kept = append(kept, n)
		}
	}

	sort.Strings(kept)
	return Selection{Names: kept}
}

// Resolve computes the selection via SelectNames and validates that every
// required field in that set is present and non-empty in doc.
func Resolve(doc map[string]interface{}, includeFields, excludeFields, additionalCriticalFields []string, activeDefaults []Config) (Selection, error) {
	sel := SelectNames(includeFields, excludeFields, additionalCriticalFields, activeDefaults)

	required := make(map[string]bool)
	for _, c := range activeDefaults {
		if c.Required {
			required[c.Name] = true
		}
	}
	for _, n := range sel.Names {
		if required[n] && canonical.IsEmpty(doc[n]) {
			return Selection{}, &MissingRequiredError{Field: n}
		}
	}

	return sel, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// Project builds the canonical ordered mapping: for each name in the
// selection (already sorted), if the document contains it and the value is
// non-empty, the pair is inserted.
func Project(doc map[string]interface{}, sel Selection) *canonical.Object {
	var pairs []canonical.Pair
	for _, name := range sel.Names {
		v, ok := doc[name]
		if !ok || canonical.IsEmpty(v) {
			continue
		}
		pairs = append(pairs, canonical.Pair{Key: name, Value: v})
	}
	return canonical.NewObject(pairs)
}
