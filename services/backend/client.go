// Package backend is the REST client of the AcademyOS backend.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/core/subscription"
)

const (
	loginPath    = "/auth/login"
	myStatusPath = "/subscriptions/my-status"
)

// APIError is a non-2xx answer of the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (err *APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("backend: %d %s", err.StatusCode, http.StatusText(err.StatusCode))
	}
	return fmt.Sprintf("backend: %d %s", err.StatusCode, err.Message)
}

func IsUnauthorized(err error) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.StatusCode == http.StatusUnauthorized
}

type (
	errorBody struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	statusPayload struct {
		Status   string `json:"status"`
		Plan     string `json:"plan"`
		StartAt  string `json:"startAt"`
		EndAt    string `json:"endAt"`
		TrialEnd string `json:"trialEnd"`
	}

	identityPayload struct {
		ID           string         `json:"id"`
		Name         string         `json:"name"`
		Email        string         `json:"email"`
		Role         string         `json:"role"`
		CenterID     string         `json:"centerId"`
		CenterName   string         `json:"centerName"`
		Subscription *statusPayload `json:"subscription"`
	}

	loginResponse struct {
		Token        string          `json:"token"`
		Data         identityPayload `json:"data"`
		TrialExpired bool            `json:"trialExpired"`
	}

	myStatusResponse struct {
		Data statusPayload `json:"data"`
	}
)

func (p statusPayload) details() subscription.Details {
	return subscription.Details{
		Status:   subscription.ParseStatus(p.Status),
		Plan:     p.Plan,
		StartAt:  p.StartAt,
		EndAt:    p.EndAt,
		TrialEnd: p.TrialEnd,
	}
}

// LoginRequest holds the console login form.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is what the console keeps from a successful login.
type LoginResult struct {
	Token        string
	Identity     session.Identity
	TrialExpired bool
}

// Client talks to the AcademyOS backend. It implements subscription.Oracle.
type Client struct {
	rc     *resty.Client
	logger core.Logger

	mu             sync.RWMutex
	onUnauthorized []func()
}

var _ subscription.Oracle = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient sets the underlying *http.Client (tests, proxies).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.rc = resty.NewWithClient(hc)
	}
}

func New(conf core.BackendConfig, logger core.Logger, opts ...Option) *Client {
	c := &Client{rc: resty.New(), logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	c.rc.SetBaseURL(conf.BaseURL).
		SetHeader("Accept", "application/json").
		SetError(&errorBody{}).
		OnAfterResponse(c.interceptUnauthorized)
	if conf.Timeout > 0 {
		c.rc.SetTimeout(conf.Timeout)
	}
	return c
}

// OnUnauthorized registers fn to run whenever any endpoint answers 401.
// This is the console-wide session invalidation hook.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
	c.mu.Unlock()
}

func (c *Client) interceptUnauthorized(_ *resty.Client, resp *resty.Response) error {
	if resp.StatusCode() != http.StatusUnauthorized {
		return nil
	}
	c.logger.Warn("backend answered 401, invalidating session",
		map[string]interface{}{"method": resp.Request.Method, "url": resp.Request.URL})

	c.mu.RLock()
	handlers := append([]func(){}, c.onUnauthorized...)
	c.mu.RUnlock()
	for _, fn := range handlers {
		fn()
	}
	return nil
}

// Login authenticates against the backend and returns the identity and bearer credential.
func (c *Client) Login(ctx context.Context, lr LoginRequest) (LoginResult, error) {
	var out loginResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(lr).
		SetResult(&out).
		Post(loginPath)
	if err != nil {
		return LoginResult{}, errors.Wrap(err, "posting login")
	}
	if err = apiError(resp); err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, errors.New("login response without token")
	}

	role, err := session.ParseRole(out.Data.Role)
	if err != nil {
		return LoginResult{}, errors.Wrapf(err, "login response role %q", out.Data.Role)
	}
	id := session.Identity{
		ID:         out.Data.ID,
		Name:       out.Data.Name,
		Email:      out.Data.Email,
		Role:       role,
		CenterID:   out.Data.CenterID,
		CenterName: out.Data.CenterName,
	}
	if out.Data.Subscription != nil {
		id.Subscription = out.Data.Subscription.details()
	}
	return LoginResult{Token: out.Token, Identity: id, TrialExpired: out.TrialExpired}, nil
}

// FetchStatus returns the subscription of the credential's center, normalized.
func (c *Client) FetchStatus(ctx context.Context, credential string) (subscription.Details, error) {
	var out myStatusResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetAuthToken(credential).
		SetResult(&out).
		Get(myStatusPath)
	if err != nil {
		return subscription.Details{}, errors.Wrap(err, "getting subscription status")
	}
	if err = apiError(resp); err != nil {
		return subscription.Details{}, err
	}
	return out.Data.details(), nil
}

func apiError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	return apiErr
}
