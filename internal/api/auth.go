package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/lanternworks/storyloom/internal/config"
)

// Role represents an authorization role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// authConfig holds credentials loaded from environment variables.
type authConfig struct {
	adminUser    string
	adminPass    string
	operatorUser string
	operatorPass string
	enabled      bool
}

// initAuth loads credentials from environment variables or files, using
// the *_FILE convention. If no admin credentials are set, authentication
// is disabled (dev-friendly).
func initAuth() (*authConfig, error) {
	adminUser, err := config.ResolveSecret("STORYLOOM_ADMIN_USER")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve STORYLOOM_ADMIN_USER: %w", err)
	}
	adminPass, err := config.ResolveSecret("STORYLOOM_ADMIN_PASS")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve STORYLOOM_ADMIN_PASS: %w", err)
	}
	operatorUser, err := config.ResolveSecret("STORYLOOM_OPERATOR_USER")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve STORYLOOM_OPERATOR_USER: %w", err)
	}
	operatorPass, err := config.ResolveSecret("STORYLOOM_OPERATOR_PASS")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve STORYLOOM_OPERATOR_PASS: %w", err)
	}

	return &authConfig{
		adminUser:    adminUser,
		adminPass:    adminPass,
		operatorUser: operatorUser,
		operatorPass: operatorPass,
		enabled:      adminUser != "" && adminPass != "",
	}, nil
}

// authenticate checks basic auth credentials and returns the role if
// valid. Empty string means invalid.
func (s *Server) authenticate(r *http.Request) Role {
	if s.auth == nil || !s.auth.enabled {
		return RoleAdmin // No auth configured = full access
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}

	if s.auth.adminUser != "" && s.auth.adminPass != "" {
		if secureCompare(user, s.auth.adminUser) && secureCompare(pass, s.auth.adminPass) {
			return RoleAdmin
		}
	}

	if s.auth.operatorUser != "" && s.auth.operatorPass != "" {
		if secureCompare(user, s.auth.operatorUser) && secureCompare(pass, s.auth.operatorPass) {
			return RoleOperator
		}
	}

	return ""
}

// secureCompare performs constant-time string comparison to prevent
// timing attacks.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Storyloom"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// requireRole wraps a handler and requires one of the specified roles.
func (s *Server) requireRole(handler http.HandlerFunc, allowedRoles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := s.authenticate(r)
		if role == "" {
			requireAuth(w)
			return
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				handler(w, r)
				return
			}
		}
		http.Error(w, "Forbidden", http.StatusForbidden)
	}
}

// requireAnyRole wraps a handler requiring admin OR operator role.
func (s *Server) requireAnyRole(handler http.HandlerFunc) http.HandlerFunc {
	return s.requireRole(handler, RoleAdmin, RoleOperator)
}

// requireAdmin wraps a handler requiring admin role only.
func (s *Server) requireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return s.requireRole(handler, RoleAdmin)
}
