package validation

import "strings"

// Names that collide with API path segments or read as system accounts.
var reservedUsernames = map[string]struct{}{
	"admin":         {},
	"api":           {},
	"auth":          {},
	"me":            {},
	"settings":      {},
	"users":         {},
	"posts":         {},
	"comments":      {},
	"plans":         {},
	"progress":      {},
	"notifications": {},
	"feed":          {},
	"metrics":       {},
	"health":        {},
	"login":         {},
	"signup":        {},
	"system":        {},
}

// IsReservedUsername reports whether name is unavailable for signup, ignoring case.
func IsReservedUsername(name string) bool {
	_, ok := reservedUsernames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
