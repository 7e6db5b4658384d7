package users

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Permission grants a single action on a resource, e.g. {employees, read}.
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// String returns the permission in resource:action form
func (p Permission) String() string {
	return p.Resource + ":" + p.Action
}

// Role is a named group of permissions
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
}

// HasPermission reports whether the role grants exactly (resource, action)
func (r Role) HasPermission(resource, action string) bool {
	for _, p := range r.Permissions {
		if p.Resource == resource && p.Action == action {
			return true
		}
	}
	return false
}

type User struct {
	ID           int64     `json:"id"`                    // Backend identifier
	Username     string    `json:"username"`              // Unique login name
	Name         string    `json:"name,omitempty"`        // Display name given at registration
	Roles        []Role    `json:"roles"`                 // Order is irrelevant for permission checks
	PasswordHash string    `json:"-"`                     // Never serialized
	DateJoined   Timestamp `json:"date_joined,omitzero"` // Set by the backend on registration
	LastLogin    Timestamp `json:"last_login,omitzero"`
	Blocked      bool      `json:"blocked,omitempty"`
}

// HasPermission reports whether any of the user's roles grants exactly
// (resource, action). There is no wildcard or hierarchy. A nil user has no
// permissions.
func (u *User) HasPermission(resource, action string) bool {
	if u == nil {
		return false
	}
	for _, role := range u.Roles {
		if role.HasPermission(resource, action) {
			return true
		}
	}
	return false
}

// HasRole reports whether the user holds a role with the given name
func (u *User) HasRole(name string) bool {
	if u == nil {
		return false
	}
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the names of the user's roles in order
func (u *User) RoleNames() []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}

// Clone returns a deep copy so callers can't mutate shared session state
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = make([]Role, len(u.Roles))
	for i, role := range u.Roles {
		c.Roles[i] = role
		c.Roles[i].Permissions = append([]Permission(nil), role.Permissions...)
	}
	return &c
}

// PermissionSet is the flattened set of (resource, action) pairs granted by
// a user's roles.
type PermissionSet map[Permission]struct{}

// NewPermissionSet flattens the user's roles. A nil user yields an empty set.
func NewPermissionSet(u *User) PermissionSet {
	set := make(PermissionSet)
	if u == nil {
		return set
	}
	for _, role := range u.Roles {
		for _, p := range role.Permissions {
			set[p] = struct{}{}
		}
	}
	return set
}

func (s PermissionSet) Has(resource, action string) bool {
	_, ok := s[Permission{Resource: resource, Action: action}]
	return ok
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's stored hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}
