package devserver

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jrsteele09/hr-dashboard/users"
)

const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleEmployee = "employee"
)

func perms(resource string, actions ...string) []users.Permission {
	out := make([]users.Permission, 0, len(actions))
	for _, a := range actions {
		out = append(out, users.Permission{Resource: resource, Action: a})
	}
	return out
}

// DefaultRoles is the role catalogue seeded into an empty backend
func DefaultRoles() []users.Role {
	var all []users.Permission
	all = append(all, perms("employees", "read", "write", "delete")...)
	all = append(all, perms("salaries", "read", "write", "delete")...)
	all = append(all, perms("salary", "read")...)
	all = append(all, perms("attendances", "read", "write", "delete")...)
	all = append(all, perms("users", "read", "write", "delete")...)
	all = append(all, perms("user", "read", "write")...)

	var hr []users.Permission
	hr = append(hr, perms("employees", "read")...)
	hr = append(hr, perms("attendances", "read")...)
	hr = append(hr, perms("user", "read")...)

	return []users.Role{
		{ID: 1, Name: RoleAdmin, Description: "Full access", Permissions: all},
		{ID: 2, Name: RoleHR, Description: "Human resources staff", Permissions: hr},
		{ID: 3, Name: RoleEmployee, Description: "Self service", Permissions: perms("salary", "read")},
	}
}

// InitialiseSystem seeds the roles and the administrator account. Existing
// roles are refreshed; an existing administrator is left alone.
func (s *Server) InitialiseSystem() error {
	roles := DefaultRoles()
	for _, role := range roles {
		if err := s.repos.Roles.Upsert(role); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to seed role %s: %w", role.Name, err)
		}
	}

	generatedPassword, err := s.createAdmin(roles[0])
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}
	if generatedPassword == "" {
		return nil
	}

	s.AdminPassword = generatedPassword
	s.logger.Info().Msg("👤 Admin credentials:")
	s.logger.Info().Msgf("   Username:    %s", s.config.GetAdminUsername())
	if s.config.GetAdminPassword() == "" {
		s.logger.Info().Msgf("   Password:    %s     (generated, set ADMIN_PASSWORD to fix it)", generatedPassword)
	}
	return nil
}

// createAdmin returns the password when it created the account
func (s *Server) createAdmin(adminRole users.Role) (string, error) {
	username := s.config.GetAdminUsername()
	if existing, err := s.repos.Users.GetByUsername(username); err == nil && existing.HasRole(RoleAdmin) {
		return "", nil
	}

	password := s.config.GetAdminPassword()
	if password == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[server createAdmin] failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("[server createAdmin] failed to hash password: %w", err)
	}

	admin := &users.User{
		Username:     username,
		Name:         "System Administrator",
		PasswordHash: passwordHash,
		Roles:        []users.Role{adminRole},
		DateJoined:   users.NewTimestamp(time.Now()),
	}
	if err := s.repos.Users.Upsert(admin); err != nil {
		return "", fmt.Errorf("[server createAdmin] failed to create admin: %w", err)
	}
	return password, nil
}
