// config/security_config.go
package config

import "strings"

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the admin role
)

// EndpointSecurityConfig maps "METHOD /route/template" to the required
// security level. Templates match the mux route definitions.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Operational - Public
	"GET /healthz": SecurityPublic,
	"GET /metrics": SecurityPublic,

	// RCCA lifecycle - Access Protected
	"POST /api/v1/rcca/drafts":        SecurityAccess,
	"PUT /api/v1/rcca/{id}/draft":     SecurityAccess,
	"PUT /api/v1/rcca/{id}/members":   SecurityAccess,
	"POST /api/v1/rcca/{id}/submit":   SecurityAccess,
	"POST /api/v1/rcca/{id}/resubmit": SecurityAccess,
	"POST /api/v1/rcca/{id}/delete":   SecurityAccess,
	"GET /api/v1/rcca":                SecurityAccess,
	"GET /api/v1/rcca/{id}":           SecurityAccess,
	"GET /api/v1/rcca/{id}/history":   SecurityAccess,

	// RCCA decisions - Admin Protected
	"PUT /api/v1/rcca/{id}/approve": SecurityAdmin,
	"PUT /api/v1/rcca/{id}/reject":  SecurityAdmin,

	// Dashboard - Access Protected
	"GET /api/v1/dashboard/stats":       SecurityAccess,
	"GET /api/v1/dashboard/trend":       SecurityAccess,
	"GET /api/v1/dashboard/pareto":      SecurityAccess,
	"GET /api/v1/dashboard/departments": SecurityAccess,

	// Dashboard - Admin Protected
	"GET /api/v1/dashboard/employees": SecurityAdmin,

	// Notifications - Access Protected
	"GET /api/v1/notifications":            SecurityAccess,
	"POST /api/v1/notifications/{id}/read": SecurityAccess,
}

// GetSecurityLevel returns the security level for a method and route template
func GetSecurityLevel(method, route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[strings.ToUpper(method)+" "+route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAdmin
}
