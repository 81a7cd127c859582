package identity

import "strings"

// Allowlist is a static set of normalized email addresses, loaded once from
// configuration at process start and immutable afterwards.
type Allowlist map[string]struct{}

// ParseAllowlist builds an Allowlist from a comma-separated string.
// Entries are lower-cased and trimmed; empties are dropped.
func ParseAllowlist(csv string) Allowlist {
	out := make(Allowlist)
	for _, p := range strings.Split(csv, ",") {
		if e := strings.ToLower(strings.TrimSpace(p)); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

// Contains reports whether email is on the list. The input is normalized
// the same way entries were.
func (a Allowlist) Contains(email string) bool {
	if len(a) == 0 {
		return false
	}
	_, ok := a[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
