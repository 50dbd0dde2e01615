package search

import (
	"regexp"
	"strings"
)

// Context extraction rules are environment-specific: they know how the host
// surface embeds an identifier in the markup around a widget. The augmenter
// only depends on the Supplier contract, so an integration with a different
// surface replaces these helpers wholesale.

var changePathPattern = regexp.MustCompile(`/(\d+)/change/?$`)

// ChangePathID extracts the trailing numeric identifier from an admin
// change-form path such as "/admin/app/store/123/change/". It reports false
// when the path does not follow that shape.
func ChangePathID(path string) (string, bool) {
	match := changePathPattern.FindStringSubmatch(strings.TrimSpace(path))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// PathSupplier builds a Supplier that resolves the edit-link path on every
// call and extracts its identifier. Rows that move or re-render between
// requests therefore yield the identifier of their current position.
func PathSupplier(path func() string) Supplier {
	return func() (string, bool) {
		if path == nil {
			return "", false
		}
		return ChangePathID(path())
	}
}

// FieldSupplier builds a Supplier that reads the named hidden field through
// get at request time. Empty values report as absent.
func FieldSupplier(get func(name string) string, name string) Supplier {
	return func() (string, bool) {
		if get == nil || strings.TrimSpace(name) == "" {
			return "", false
		}
		value := strings.TrimSpace(get(name))
		return value, value != ""
	}
}

// FirstOf tries each supplier in order and returns the first available value.
// Rows usually carry an edit link, falling back to a hidden identifier field
// when they do not.
func FirstOf(suppliers ...Supplier) Supplier {
	return func() (string, bool) {
		for _, supply := range suppliers {
			if supply == nil {
				continue
			}
			if value, ok := supply(); ok {
				return value, true
			}
		}
		return "", false
	}
}
