package lib

import "strings"

// SameAddress compares two email addresses for equality, ignoring case and
// surrounding spaces. There is deliberately no substring or domain-only
// matching: "sub.a@x.com" never matches "a@x.com".
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ContainsAddress reports whether target is present in the list of addresses.
func ContainsAddress(addresses []string, target string) bool {
	for _, address := range addresses {
		if SameAddress(address, target) {
			return true
		}
	}
	return false
}
