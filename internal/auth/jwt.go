package auth

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// CookieName is the auth cookie the API issues. LegacyCookieNames are older
// variants still cleared on logout so stale sessions cannot linger.
const CookieName = "jauth"

var LegacyCookieNames = []string{"jid", "jwt"}

const tokenTTL = 24 * time.Hour

// Claims carries the authenticated user plus an optional impersonation
// block set when an admin is acting as another tenant.
type Claims struct {
	TenantID string         `json:"tid"`
	Role     string         `json:"role"`
	Imp      *Impersonation `json:"imp,omitempty"`
	jwt.RegisteredClaims
}

type Impersonation struct {
	ActorID    int    `json:"actor_id"`
	TenantName string `json:"tenant_name"`
}

func secretKey() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// IssueToken signs a token for the user.
func IssueToken(userID int, tenantID, role string, imp *Impersonation) (string, error) {
	claims := Claims{
		TenantID: tenantID,
		Role:     role,
		Imp:      imp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ParseToken validates the token and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secretKey(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// SetAuthCookie writes the jauth cookie.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(tokenTTL.Seconds()), "/", "", false, true)
}

// ClearAuthCookies expires the jauth cookie and every legacy variant.
func ClearAuthCookies(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	for _, name := range LegacyCookieNames {
		c.SetCookie(name, "", -1, "/", "", false, true)
	}
}
