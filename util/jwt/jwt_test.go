package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("s3cret", 12, "ADMIN", 1)
	require.NoError(t, err)

	for _, header := range []string{tok, "Bearer " + tok, "bearer  " + tok} {
		claims, err := ParseAuth(header, "s3cret")
		require.NoError(t, err)
		id, role, err := Subject(claims)
		require.NoError(t, err)
		require.Equal(t, int64(12), id)
		require.Equal(t, "ADMIN", role)
	}
}

func TestParseAuth_Rejects(t *testing.T) {
	good, err := Issue("s3cret", 1, "CUSTOMER", 1)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1, "role": "CUSTOMER", "exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1, "role": "CUSTOMER",
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": 1, "role": "CUSTOMER", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, header := range map[string]string{
		"empty":        "",
		"bearer only":  "Bearer ",
		"wrong secret": good + "x",
		"expired":      expired,
		"no exp":       noExp,
		"other alg":    hs512,
	} {
		_, err := ParseAuth(header, "s3cret")
		require.Error(t, err, name)
	}
}

func TestSubject_MissingClaims(t *testing.T) {
	_, _, err := Subject(jwt.MapClaims{"role": "CUSTOMER"})
	require.Error(t, err)

	_, _, err = Subject(jwt.MapClaims{"sub": float64(3)})
	require.Error(t, err)

	_, _, err = Subject(jwt.MapClaims{"sub": float64(0), "role": "CUSTOMER"})
	require.Error(t, err)
}
