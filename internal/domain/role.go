package domain

import "fmt"

// Role is the closed set of roles a company member can hold
type Role string

const (
	RoleOwner            Role = "owner"
	RoleManager          Role = "manager"
	RoleBroker           Role = "broker"
	RoleInsuranceAnalyst Role = "insurance_analyst"
)

// AllRoles lists every valid role, most privileged first
var AllRoles = []Role{RoleOwner, RoleManager, RoleBroker, RoleInsuranceAnalyst}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleBroker, RoleInsuranceAnalyst:
		return true
	}
	return false
}

// Label returns the pt-BR display name
func (r Role) Label() string {
	switch r {
	case RoleOwner:
		return "Proprietário"
	case RoleManager:
		return "Gerente"
	case RoleBroker:
		return "Corretor"
	case RoleInsuranceAnalyst:
		return "Analista de Seguros"
	}
	return string(r)
}

// ParseRole converts a raw string (token claim, DB column, request body) into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
