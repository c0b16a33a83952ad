package backend

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// CredentialExpiry reads the `exp` claim of a JWT credential without verifying it.
// The console cannot verify backend signatures; this is for display only.
func CredentialExpiry(credential string) (time.Time, bool) {
	var claims jwt.StandardClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(credential, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.ExpiresAt, 0).UTC(), true
}
