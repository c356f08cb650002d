package tokens

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/corp_site/pkg/roles"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Identity is what a token says about its subject besides the id.
// Role is carried by access tokens only.
type Identity struct {
	Username string
	Email    string
	Role     roles.Role
}

type Claims struct {
	Kind     Kind       `json:"typ"`
	Username string     `json:"username,omitempty"`
	Email    string     `json:"email,omitempty"`
	Role     roles.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string { return c.Subject }

func (c *Claims) Identity() Identity {
	return Identity{Username: c.Username, Email: c.Email, Role: c.Role}
}

// UnmarshalJSON accepts older payloads that keyed the subject as userId or id.
func (c *Claims) UnmarshalJSON(b []byte) error {
	type canonical Claims
	var aux struct {
		canonical
		LegacyUserID json.RawMessage `json:"userId,omitempty"`
		LegacyID     json.RawMessage `json:"id,omitempty"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = Claims(aux.canonical)
	if c.Subject == "" {
		c.Subject = legacyString(aux.LegacyUserID)
	}
	if c.Subject == "" {
		c.Subject = legacyString(aux.LegacyID)
	}
	return nil
}

func legacyString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return strings.Trim(string(raw), `"`)
}
