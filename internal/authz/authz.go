// Package authz is the single authorization policy of the CRM. Every
// tenant-scoped service call runs Authorize first, then InCompany on the
// loaded entity and, for brokers, RequireOwnership.
package authz

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

// Actor is the authenticated caller of a use-case
type Actor struct {
	UserID    uuid.UUID
	Name      string
	Role      domain.Role
	CompanyID *uuid.UUID
	// CreatedBy is set for invited users; their subscription is the inviter's
	CreatedBy *uuid.UUID
}

// ActorFromUser builds the actor for a loaded user row
func ActorFromUser(u *domain.User) Actor {
	return Actor{UserID: u.ID, Name: u.Name, Role: u.Role, CompanyID: u.CompanyID, CreatedBy: u.CreatedBy}
}

func (a Actor) IsBroker() bool { return a.Role == domain.RoleBroker }

// Action is the closed set of permissions checked by Can
type Action int

const (
	ActionViewUsers Action = iota
	ActionCreateUser
	ActionCreateInsuranceAnalyst
	ActionUpdateUser
	ActionDeactivateUser
	ActionDeleteUser

	ActionViewCompany
	ActionUpdateCompany

	ActionViewTenants
	ActionManageTenants

	ActionViewPropertyOwners
	ActionManagePropertyOwners

	ActionViewProperties
	ActionCreateProperty
	ActionUpdateProperty
	ActionDeleteProperty

	ActionViewContracts
	ActionCreateContract
	ActionUpdateContract

	ActionManageDocuments

	ActionViewCustomFields
	ActionManageCustomFields
	ActionFillCustomFields

	ActionViewDashboard
)

var actionNames = map[Action]string{
	ActionViewUsers:              "view_users",
	ActionCreateUser:             "create_user",
	ActionCreateInsuranceAnalyst: "create_insurance_analyst",
	ActionUpdateUser:             "update_user",
	ActionDeactivateUser:         "deactivate_user",
	ActionDeleteUser:             "delete_user",
	ActionViewCompany:            "view_company",
	ActionUpdateCompany:          "update_company",
	ActionViewTenants:            "view_tenants",
	ActionManageTenants:          "manage_tenants",
	ActionViewPropertyOwners:     "view_property_owners",
	ActionManagePropertyOwners:   "manage_property_owners",
	ActionViewProperties:         "view_properties",
	ActionCreateProperty:         "create_property",
	ActionUpdateProperty:         "update_property",
	ActionDeleteProperty:         "delete_property",
	ActionViewContracts:          "view_contracts",
	ActionCreateContract:         "create_contract",
	ActionUpdateContract:         "update_contract",
	ActionManageDocuments:        "manage_documents",
	ActionViewCustomFields:       "view_custom_fields",
	ActionManageCustomFields:     "manage_custom_fields",
	ActionFillCustomFields:       "fill_custom_fields",
	ActionViewDashboard:          "view_dashboard",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Can reports whether role may perform action. Unknown roles and actions
// are denied.
func Can(role domain.Role, action Action) bool {
	switch role {
	case domain.RoleOwner:
		return true
	case domain.RoleManager:
		switch action {
		case ActionCreateInsuranceAnalyst, ActionUpdateCompany, ActionManageCustomFields:
			return false
		}
		_, known := actionNames[action]
		return known
	case domain.RoleBroker:
		switch action {
		case ActionViewCompany,
			ActionViewTenants, ActionManageTenants,
			ActionViewPropertyOwners, ActionManagePropertyOwners,
			ActionViewProperties, ActionCreateProperty, ActionUpdateProperty, ActionDeleteProperty,
			ActionViewContracts, ActionCreateContract,
			ActionManageDocuments, ActionFillCustomFields, ActionViewDashboard:
			return true
		}
		return false
	case domain.RoleInsuranceAnalyst:
		switch action {
		case ActionViewCompany, ActionViewProperties, ActionViewContracts,
			ActionFillCustomFields, ActionViewDashboard:
			return true
		}
		return false
	}
	return false
}

var forbiddenMessages = map[Action]string{
	ActionCreateUser:             "Você não tem permissão para criar usuários. Apenas proprietários e gerentes podem realizar esta ação.",
	ActionCreateInsuranceAnalyst: "Apenas o proprietário pode cadastrar analistas de seguros.",
	ActionUpdateCompany:          "Apenas o proprietário pode alterar os dados da empresa.",
	ActionManageCustomFields:     "Apenas o proprietário pode gerenciar campos personalizados.",
	ActionUpdateContract:         "Apenas proprietários e gerentes podem alterar contratos.",
}

// Authorize checks the role permission and that the actor belongs to a
// company, returning that company.
func Authorize(actor Actor, action Action) (uuid.UUID, error) {
	if !Can(actor.Role, action) {
		msg := forbiddenMessages[action]
		if msg == "" {
			msg = "Você não tem permissão para realizar esta ação."
		}
		return uuid.Nil, domain.Forbidden(msg)
	}
	if actor.CompanyID == nil || *actor.CompanyID == uuid.Nil {
		return uuid.Nil, domain.Internal("Usuário sem empresa vinculada")
	}
	return *actor.CompanyID, nil
}

// InCompany returns NOT_FOUND when entity is missing or belongs to another
// company, so callers cannot discover ids across tenants.
func InCompany[T domain.Scoped](actor Actor, entity T, found bool, notFoundMsg string) error {
	if !found || actor.CompanyID == nil || entity.ScopeCompanyID() != *actor.CompanyID {
		return domain.NotFound(notFoundMsg)
	}
	return nil
}

// RequireOwnership limits brokers to records they own. Other roles pass.
func RequireOwnership(actor Actor, ownerID *uuid.UUID, msg string) error {
	if !actor.IsBroker() {
		return nil
	}
	if ownerID == nil || *ownerID != actor.UserID {
		return domain.Forbidden(msg)
	}
	return nil
}

// BrokerScope returns the actor id when listings must be limited to the
// broker's own records, nil otherwise.
func BrokerScope(actor Actor) *uuid.UUID {
	if actor.IsBroker() {
		id := actor.UserID
		return &id
	}
	return nil
}
