package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the current actor's role. The set is closed: every switch over
// Role handles all four values.
type Role uint8

const (
	RoleNone Role = iota
	RoleBuyer
	RoleDeveloper
	RoleAdmin
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleBuyer:
		return "buyer"
	case RoleDeveloper:
		return "developer"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// SignedIn reports whether the role represents an authenticated session.
func (r Role) SignedIn() bool {
	return r != RoleNone
}

// ParseRole parses a wire role name. The empty string parses as RoleNone.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RoleNone, nil
	case "buyer":
		return RoleBuyer, nil
	case "developer":
		return RoleDeveloper, nil
	case "admin":
		return RoleAdmin, nil
	}
	return RoleNone, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// MarshalJSON encodes the role by name.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a role name.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalText lets Role act as a YAML/text scalar.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name from text.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
