package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "unit-test-secret", Issuer: "analysis.identity"}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    "device-gateway",
		"iss":    testConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": []string{ScopeAnalysisWrite, ScopeAnalysisRead},
	}
}

func TestParseAcceptsValidToken(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, testConfig.Secret, baseClaims())

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.Equal(t, "device-gateway", claims.Subject)
	require.True(t, claims.HasScope(ScopeAnalysisWrite))
	require.True(t, claims.HasScope(ScopeAnalysisRead))
	require.False(t, claims.HasScope("analysis:admin"))
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestParseAcceptsSpaceSeparatedScopes(t *testing.T) {
	claims := baseClaims()
	claims["scopes"] = ScopeAnalysisWrite + " " + ScopeAnalysisRead
	token := signToken(t, jwt.SigningMethodHS256, testConfig.Secret, claims)

	parsed, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.True(t, parsed.HasScope(ScopeAnalysisWrite))
	require.True(t, parsed.HasScope(ScopeAnalysisRead))
}

func TestParseRejectsBadTokens(t *testing.T) {
	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongIssuer := baseClaims()
	wrongIssuer["iss"] = "somebody-else"

	noSubject := baseClaims()
	delete(noSubject, "sub")

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong secret", token: signToken(t, jwt.SigningMethodHS256, "other-secret", baseClaims())},
		{name: "wrong issuer", token: signToken(t, jwt.SigningMethodHS256, testConfig.Secret, wrongIssuer)},
		{name: "wrong algorithm", token: signToken(t, jwt.SigningMethodHS512, testConfig.Secret, baseClaims())},
		{name: "expired", token: signToken(t, jwt.SigningMethodHS256, testConfig.Secret, expired)},
		{name: "missing subject", token: signToken(t, jwt.SigningMethodHS256, testConfig.Secret, noSubject)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.token, testConfig)
			require.Error(t, err)
		})
	}
}
