package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatsim/pkg/domain"
)

// ValidateCatalog checks that a catalog can drive a conversation: ids are
// present, unique and safe inside action strings and comma-separated
// navigation lists, and every entry has a display name.
func ValidateCatalog(cat domain.Catalog) error {
	var errors []string

	if len(cat.Integrations) == 0 {
		errors = append(errors, "catalog has no integrations")
	}
	seen := make(map[string]bool)
	for i, in := range cat.Integrations {
		errors = append(errors, checkEntry("integration", i, in.ID, in.Name, seen)...)
	}

	if len(cat.Domains) == 0 {
		errors = append(errors, "catalog has no focus domains")
	}
	seen = make(map[string]bool)
	for i, d := range cat.Domains {
		errors = append(errors, checkEntry("domain", i, d.ID, d.Name, seen)...)
		if d.Commitment == "" {
			errors = append(errors, fmt.Sprintf("domain '%s' has no commitment line", d.ID))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}

func checkEntry(kind string, index int, id, name string, seen map[string]bool) []string {
	var errors []string
	switch {
	case id == "":
		return []string{fmt.Sprintf("%s #%d has an empty id", kind, index)}
	case strings.ContainsAny(id, ", \t\n"):
		errors = append(errors, fmt.Sprintf("%s id '%s' contains a comma or whitespace", kind, id))
	}
	if seen[id] {
		errors = append(errors, fmt.Sprintf("duplicate %s id '%s'", kind, id))
	}
	seen[id] = true
	if name == "" {
		errors = append(errors, fmt.Sprintf("%s '%s' has no name", kind, id))
	}
	return errors
}
