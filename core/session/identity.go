package session

import (
	"errors"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/subscription"
)

// Role is the closed set of console actor classes.
type Role string

// Roles
const (
	RoleSuperAdmin Role = "super-admin"
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
)

var (
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidIdentity = errors.New("a session requires an identity with a valid role and a credential")

	AllRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleTeacher}

	Roles = []RoleInfo{
		{Name: "Super Admin", Value: RoleSuperAdmin},
		{Name: "Center Admin", Value: RoleAdmin},
		{Name: "Teacher", Value: RoleTeacher},
	}

	roleTag  = "role"
	roleText = "{0} must be one of super-admin, admin or teacher"
)

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

// ParseRole cleans `s` and returns the matching Role.
func ParseRole(s string) (Role, error) {
	r := Role(core.CleanString(s, true /* lower */))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleTeacher:
		return true
	}
	return false
}

// RequiresSubscription reports whether the role's access depends on the center's subscription.
func (r Role) RequiresSubscription() bool {
	return r == RoleAdmin || r == RoleTeacher
}

func (r Role) String() string { return string(r) }

// Identity is the authenticated console user.
type Identity struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Role         Role                 `json:"role"`
	CenterID     string               `json:"centerId,omitempty"`
	CenterName   string               `json:"centerName,omitempty"`
	Subscription subscription.Details `json:"subscription"`
}

func (id Identity) IsSuperAdmin() bool { return id.Role == RoleSuperAdmin }

// IdentityFields is a partial Identity: nil fields are left untouched by Store.UpdateIdentityFields.
type IdentityFields struct {
	Name         *string
	Email        *string
	CenterID     *string
	CenterName   *string
	Subscription *subscription.Details
}

func (f IdentityFields) apply(id *Identity) {
	if f.Name != nil {
		id.Name = *f.Name
	}
	if f.Email != nil {
		id.Email = *f.Email
	}
	if f.CenterID != nil {
		id.CenterID = *f.CenterID
	}
	if f.CenterName != nil {
		id.CenterName = *f.CenterName
	}
	if f.Subscription != nil {
		id.Subscription = *f.Subscription
	}
}

// InitValidators registers the `role` validation tag.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

func roleValidation(fl validator.FieldLevel) bool {
	_, err := ParseRole(fl.Field().String())
	return err == nil
}
