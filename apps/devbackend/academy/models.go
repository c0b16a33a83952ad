// Package academy holds the centers and users served by the development backend.
package academy

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/core/subscription"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmailExists = errors.New("email already exists")
)

type Center struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Subscription subscription.Details `json:"subscription"`
	UpdatedAt    time.Time            `json:"updatedAt"` // UTC
}

type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Role         session.Role `json:"role"`
	CenterID     string       `json:"centerId,omitempty"`
	PasswordHash []byte       `json:"-"`
	CreatedAt    time.Time    `json:"createdAt"` // UTC
	LastLogin    time.Time    `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,role"`
	CenterID string `json:"centerId"`
	Password string `json:"password" validate:"required,min=8"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.CenterID = core.CleanString(nu.CenterID)
	if err := validate.Struct(nu); err != nil {
		return err
	}
	// every account but the platform's belongs to a center
	if nu.Role != string(session.RoleSuperAdmin) && nu.CenterID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "centerId", Error: "this field is required"})
	}
	return nil
}

// SubscriptionUpdate replaces a center's subscription.
type SubscriptionUpdate struct {
	Status   string `json:"status" validate:"required,oneof=active paid trial trial_expired expired deactivated suspended"`
	Plan     string `json:"plan"`
	StartAt  string `json:"startAt"`
	EndAt    string `json:"endAt"`
	TrialEnd string `json:"trialEnd"`
}

func (su *SubscriptionUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	return validate.Struct(su)
}

func (su SubscriptionUpdate) Details() subscription.Details {
	return subscription.Details{
		Status:   subscription.ParseStatus(su.Status),
		Plan:     su.Plan,
		StartAt:  su.StartAt,
		EndAt:    su.EndAt,
		TrialEnd: su.TrialEnd,
	}
}
