// Package roles holds the admin panel role hierarchy: admin > editor > viewer.
package roles

import "strings"

type Role string

const (
	Admin  Role = "admin"
	Editor Role = "editor"
	Viewer Role = "viewer"
)

// rank orders roles; unknown roles rank zero and never pass a gate.
var rank = map[Role]int{
	Viewer: 1,
	Editor: 2,
	Admin:  3,
}

func (r Role) String() string { return string(r) }

func (r Role) Rank() int { return rank[r] }

func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// AtLeast reports whether r ranks at or above need.
func (r Role) AtLeast(need Role) bool {
	return r.Valid() && need.Valid() && rank[r] >= rank[need]
}

// Parse accepts any casing and surrounding whitespace.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

func All() []Role {
	return []Role{Admin, Editor, Viewer}
}

func Max(a, b Role) Role {
	if rank[a] >= rank[b] {
		return a
	}
	return b
}
