package devapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academyos/console/apps/devbackend/academy"
	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/core/subscription"
)

type academyApi struct {
	auth     *Authenticator
	dir      *academy.Directory
	validate *validator.Validate
}

func registerAcademyAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *Authenticator,
	dir *academy.Directory,
	validate *validator.Validate,
) {
	api := academyApi{auth: auth, dir: dir, validate: validate}

	g.POST("/auth/login", api.login)

	ag := g.Group("", jwt)
	ag.GET("/auth/me", api.me)
	ag.GET("/subscriptions/my-status", api.myStatus)

	// no auth on purpose: these drive manual and integration tests
	dg := g.Group("/dev")
	dg.GET("/centers", api.queryCenters)
	dg.PUT("/centers/:id/subscription", api.setSubscription)
	dg.POST("/users", api.createUser)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	IdentityPayload struct {
		ID           string                `json:"id"`
		Name         string                `json:"name"`
		Email        string                `json:"email"`
		Role         session.Role          `json:"role"`
		CenterID     string                `json:"centerId,omitempty"`
		CenterName   string                `json:"centerName,omitempty"`
		Subscription *subscription.Details `json:"subscription,omitempty"`
	}

	LoginResponse struct {
		Token        string          `json:"token"`
		Data         IdentityPayload `json:"data"`
		TrialExpired bool            `json:"trialExpired"`
	}

	DataResponse struct {
		Data interface{} `json:"data"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

// Handlers

func (api *academyApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.auth.authenticate(data.Email, data.Password)
	if err != nil {
		return err
	}
	token, err := api.auth.GenerateToken(api.auth.GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	payload, err := api.identity(usr)
	if err != nil {
		return err
	}
	resp := LoginResponse{Token: token, Data: payload}
	if payload.Subscription != nil {
		resp.TrialExpired = payload.Subscription.Status == subscription.StatusTrialExpired
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *academyApi) me(ctx echo.Context) error {
	usr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return err
	}
	payload, err := api.identity(usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, DataResponse{Data: payload})
}

func (api *academyApi) myStatus(ctx echo.Context) error {
	usr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return err
	}
	if usr.CenterID == "" {
		// platform accounts have no center, hence no subscription
		return ctx.JSON(http.StatusOK, DataResponse{Data: subscription.Details{}})
	}
	center, err := api.dir.UserCenter(usr)
	if err != nil {
		return errors.Wrap(err, "getting user center")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Data: center.Subscription})
}

func (api *academyApi) queryCenters(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, DataResponse{Data: api.dir.Centers()})
}

func (api *academyApi) setSubscription(ctx echo.Context) error {
	var data academy.SubscriptionUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubscriptionUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	center, err := api.dir.SetSubscription(ctx.Param("id"), data.Details())
	if err != nil {
		if err == academy.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting subscription")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Data: center})
}

func (api *academyApi) createUser(ctx echo.Context) error {
	var data academy.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.dir.CreateUser(data)
	switch errors.Cause(err) {
	case nil:
	case academy.ErrEmailExists:
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: err.Error()})
	case academy.ErrNotFound:
		return core.NewValidationError(nil, core.FieldError{Field: "centerId", Error: "center not found"})
	default:
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, DataResponse{Data: usr})
}

func (api *academyApi) identity(usr academy.User) (IdentityPayload, error) {
	payload := IdentityPayload{
		ID:    usr.ID,
		Name:  usr.Name,
		Email: usr.Email,
		Role:  usr.Role,
	}
	if usr.CenterID == "" {
		return payload, nil
	}
	center, err := api.dir.UserCenter(usr)
	if err != nil {
		return IdentityPayload{}, errors.Wrap(err, "getting user center")
	}
	payload.CenterID = center.ID
	payload.CenterName = center.Name
	payload.Subscription = &center.Subscription
	return payload, nil
}
