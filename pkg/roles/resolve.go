package roles

import "strings"

// SeedRule names the bootstrap administrator. When Enabled, a user with
// that username always resolves to Admin.
type SeedRule struct {
	Enabled  bool
	Username string
}

func (s SeedRule) Matches(username string) bool {
	return s.Enabled && s.Username != "" && strings.EqualFold(strings.TrimSpace(username), s.Username)
}

// Resolve picks the effective role of a stored user.
//
// Order: seed admin; an admin entry in the legacy list; the stored scalar;
// the first valid legacy entry; viewer.
func Resolve(stored string, legacy []string, username string, seed SeedRule) Role {
	if seed.Matches(username) {
		return Admin
	}

	for _, l := range legacy {
		if r, ok := Parse(l); ok && r == Admin {
			return Admin
		}
	}

	if r, ok := Parse(stored); ok {
		return r
	}

	for _, l := range legacy {
		if r, ok := Parse(l); ok {
			return r
		}
	}

	return Viewer
}
