// Package policy holds the account rules that sit on top of the role gate.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/corp_site/pkg/roles"
)

var (
	ErrDenied           = errors.New("action denied")
	ErrSeedAdmin        = fmt.Errorf("%w: the seed admin account is protected", ErrDenied)
	ErrSelf             = fmt.Errorf("%w: not allowed on your own account", ErrDenied)
	ErrAdminOnly        = fmt.Errorf("%w: only an admin may do this", ErrDenied)
	ErrInsufficientRank = fmt.Errorf("%w: insufficient role", ErrDenied)
)

type Actor struct {
	ID   string
	Role roles.Role
}

type Target struct {
	ID       string
	Username string
	Role     roles.Role
}

type Rules struct {
	SeedUsername string
}

func (p Rules) isSeed(t Target) bool {
	return p.SeedUsername != "" && strings.EqualFold(t.Username, p.SeedUsername)
}

// outranks requires an editor or better acting on someone not above them.
func outranks(a Actor, t Target) error {
	if !a.Role.AtLeast(roles.Editor) || !a.Role.AtLeast(t.Role) {
		return ErrInsufficientRank
	}
	return nil
}

func (p Rules) CanDelete(a Actor, t Target) error {
	if p.isSeed(t) {
		return ErrSeedAdmin
	}
	if a.ID == t.ID {
		return ErrSelf
	}
	if t.Role == roles.Admin && a.Role != roles.Admin {
		return ErrAdminOnly
	}
	return outranks(a, t)
}

func (p Rules) CanChangeRole(a Actor, t Target, to roles.Role) error {
	if a.ID == t.ID {
		return ErrSelf
	}
	if p.isSeed(t) && to != roles.Admin {
		return ErrSeedAdmin
	}
	if (t.Role == roles.Admin || to == roles.Admin) && a.Role != roles.Admin {
		return ErrAdminOnly
	}
	if err := outranks(a, t); err != nil {
		return err
	}
	if !a.Role.AtLeast(to) {
		return ErrInsufficientRank
	}
	return nil
}

func (p Rules) CanSetActive(a Actor, t Target, active bool) error {
	if a.ID == t.ID {
		return ErrSelf
	}
	if p.isSeed(t) && !active {
		return ErrSeedAdmin
	}
	if t.Role == roles.Admin && a.Role != roles.Admin {
		return ErrAdminOnly
	}
	return outranks(a, t)
}

func (p Rules) CanCreate(a Actor, role roles.Role) error {
	if role == roles.Admin && a.Role != roles.Admin {
		return ErrAdminOnly
	}
	if !a.Role.AtLeast(roles.Editor) || !a.Role.AtLeast(role) {
		return ErrInsufficientRank
	}
	return nil
}
