package backend

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	signed := func(claims jwt.StandardClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name       string
		credential string
		want       time.Time
		wantOK     bool
	}{
		{"with exp", signed(jwt.StandardClaims{Subject: "u1", ExpiresAt: exp.Unix()}), exp, true},
		{"without exp", signed(jwt.StandardClaims{Subject: "u1"}), time.Time{}, false},
		{"not a jwt", "opaque-token", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CredentialExpiry(tt.credential)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}
