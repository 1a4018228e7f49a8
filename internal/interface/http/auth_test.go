package http

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehab-hub/rehab-adherence/internal/domain/user"
	"github.com/rehab-hub/rehab-adherence/internal/testfixtures"
)

func TestAuthenticatorRoundTrip(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	auth, err := NewAuthenticator("secret", "rehab", time.Hour, clock.Func())
	require.NoError(t, err)

	token, err := auth.Issue(testfixtures.Expert())
	require.NoError(t, err)

	got, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testfixtures.ExpertID, got.ID)
	assert.Equal(t, user.RoleExpert, got.Role)

	clock.Advance(2 * time.Hour)
	_, err = auth.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticatorRejects(t *testing.T) {
	_, err := NewAuthenticator("", "", 0, nil)
	assert.ErrorIs(t, err, ErrMissingSecret)

	clock := testfixtures.NewClock(time.Time{})
	auth, err := NewAuthenticator("secret", "rehab", time.Hour, clock.Func())
	require.NoError(t, err)
	other, err := NewAuthenticator("other", "rehab", time.Hour, clock.Func())
	require.NoError(t, err)

	foreign, err := other.Issue(testfixtures.Patient())
	require.NoError(t, err)
	_, err = auth.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	sign := func(claims Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(clock.Now().Add(time.Hour))

	tests := map[string]Claims{
		"bad role":     {Role: "nurse", RegisteredClaims: jwt.RegisteredClaims{Subject: testfixtures.PatientID, Issuer: "rehab", ExpiresAt: exp}},
		"bad subject":  {Role: "patient", RegisteredClaims: jwt.RegisteredClaims{Subject: "42", Issuer: "rehab", ExpiresAt: exp}},
		"wrong issuer": {Role: "patient", RegisteredClaims: jwt.RegisteredClaims{Subject: testfixtures.PatientID, Issuer: "x", ExpiresAt: exp}},
		"no expiry":    {Role: "patient", RegisteredClaims: jwt.RegisteredClaims{Subject: testfixtures.PatientID, Issuer: "rehab"}},
	}
	for name, claims := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Verify(sign(claims))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
