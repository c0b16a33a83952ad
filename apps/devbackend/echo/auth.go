package devapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/academyos/console/apps/devbackend/academy"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
	tokenAudience   = "AcademyOS Console"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	CenterID string `json:"centerId,omitempty"`
}

// Authenticator signs and checks the bearer tokens of the development backend.
type Authenticator struct {
	appName         string
	secretKey       []byte
	expirationDelta time.Duration
	dir             *academy.Directory
}

func NewAuthenticator(appName, secretKey string, expirationDelta time.Duration, dir *academy.Directory) *Authenticator {
	return &Authenticator{
		appName:         appName,
		secretKey:       []byte(secretKey),
		expirationDelta: expirationDelta,
		dir:             dir,
	}
}

// Middleware returns the echo JWT middleware checking our tokens.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    a.secretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

func (a *Authenticator) GetUserClaims(usr academy.User) *Claims {
	now := academy.NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.appName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(a.expirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:    usr.Email,
		Role:     string(usr.Role),
		CenterID: usr.CenterID,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *Authenticator) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *Authenticator) authenticate(email, pwd string) (academy.User, error) {
	usr, err := a.dir.GetUserByEmail(email)
	if err != nil {
		if err == academy.ErrNotFound {
			return academy.User{}, errAuthenticationFailed
		}
		return academy.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return academy.User{}, errAuthenticationFailed
	}
	usr, err = a.dir.SetLastLogin(usr.ID)
	return usr, errors.Wrap(err, "setting lastLogin")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextUser resolves the token subject. A token of a deleted user is unauthorized.
func (a *Authenticator) getContextUser(ctx echo.Context) (academy.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(academy.User); ok {
		return usr, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return academy.User{}, err
	}
	usr, err := a.dir.GetUserByID(claims.Subject)
	if err != nil {
		if err == academy.ErrNotFound {
			return academy.User{}, errUnauthorized
		}
		return academy.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
