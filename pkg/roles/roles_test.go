package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAtLeast_TotalOrder(t *testing.T) {
	t.Parallel()

	all := All()
	for _, have := range all {
		for _, need := range all {
			assert.Equal(t, have.Rank() >= need.Rank(), have.AtLeast(need), "%s vs %s", have, need)
		}
	}

	assert.True(t, Admin.AtLeast(Editor))
	assert.True(t, Admin.AtLeast(Viewer))
	assert.True(t, Editor.AtLeast(Viewer))
	assert.False(t, Viewer.AtLeast(Editor))
	assert.False(t, Viewer.AtLeast(Admin))
	assert.False(t, Editor.AtLeast(Admin))
}

func TestAtLeast_Transitive(t *testing.T) {
	t.Parallel()

	all := All()
	for _, a := range all {
		for _, b := range all {
			for _, c := range all {
				if a.AtLeast(b) && b.AtLeast(c) {
					assert.True(t, a.AtLeast(c), "%s>=%s>=%s", a, b, c)
				}
			}
		}
	}
}

func TestAtLeast_UnknownRole(t *testing.T) {
	t.Parallel()

	assert.False(t, Role("user").AtLeast(Viewer))
	assert.False(t, Admin.AtLeast(Role("")))
}

func TestParse(t *testing.T) {
	t.Parallel()

	r, ok := Parse(" Editor ")
	assert.True(t, ok)
	assert.Equal(t, Editor, r)

	_, ok = Parse("superuser")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	seed := SeedRule{Enabled: true, Username: "admin"}

	tests := []struct {
		name     string
		stored   string
		legacy   []string
		username string
		seed     SeedRule
		want     Role
	}{
		{name: "scalar wins when legacy empty", stored: "editor", username: "jane", seed: seed, want: Editor},
		{name: "legacy admin overrides stale scalar", stored: "viewer", legacy: []string{"editor", "admin"}, username: "jane", seed: seed, want: Admin},
		{name: "legacy non-admin does not override scalar", stored: "viewer", legacy: []string{"editor"}, username: "jane", seed: seed, want: Viewer},
		{name: "missing scalar falls back to first valid legacy", stored: "", legacy: []string{"bogus", "editor"}, username: "jane", seed: seed, want: Editor},
		{name: "nothing valid defaults to viewer", stored: "user", legacy: []string{"bogus"}, username: "jane", seed: seed, want: Viewer},
		{name: "seed admin forced", stored: "viewer", username: "Admin", seed: seed, want: Admin},
		{name: "seed rule disabled", stored: "viewer", username: "admin", seed: SeedRule{Username: "admin"}, want: Viewer},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Resolve(tt.stored, tt.legacy, tt.username, tt.seed))
		})
	}
}

func TestMax(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Admin, Max(Viewer, Admin))
	assert.Equal(t, Editor, Max(Editor, Viewer))
}
