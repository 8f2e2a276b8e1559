package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func TestIssueAndParseToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := IssueToken(42, "0b1f8c1e-0000-0000-0000-000000000000", "admin", nil)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "0b1f8c1e-0000-0000-0000-000000000000", claims.TenantID)
	assert.Equal(t, "admin", claims.Role)
	assert.Nil(t, claims.Imp)
}

func TestImpersonationClaimRoundTrips(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	imp := &Impersonation{ActorID: 1, TenantName: "Oak & Ash Joinery"}
	token, err := IssueToken(7, "tid", "admin", imp)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.Imp)
	assert.Equal(t, 1, claims.Imp.ActorID)
	assert.Equal(t, "Oak & Ash Joinery", claims.Imp.TenantName)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := IssueToken(1, "tid", "member", nil)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "other-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestClearAuthCookiesExpiresLegacyNames(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/logout", nil)

	ClearAuthCookies(c)

	cookies := w.Result().Cookies()
	expired := map[string]bool{}
	for _, cookie := range cookies {
		if cookie.MaxAge < 0 {
			expired[cookie.Name] = true
		}
	}
	assert.True(t, expired[CookieName], "jauth must be expired")
	for _, name := range LegacyCookieNames {
		assert.True(t, expired[name], "legacy cookie %s must be expired", name)
	}
}
