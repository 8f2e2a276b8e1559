package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
	"golang.org/x/crypto/bcrypt"

	"joinworks/internal/auth"
	"joinworks/internal/database"
)

type AuthRoutes struct {
	server ServerInterface
}

func NewAuthRoutes(server ServerInterface) *AuthRoutes {
	return &AuthRoutes{server: server}
}

func (ar *AuthRoutes) RegisterRoutes(r *gin.Engine) {
	middleware := NewMiddleware(ar.server)

	r.POST("/auth/login", ar.loginHandler)
	r.GET("/logout", ar.logoutHandler)
	r.GET("/auth/me", middleware.AuthMiddleware(), ar.meHandler)
	r.POST("/auth/impersonate", middleware.AuthMiddleware(), middleware.AdminMiddleware(), ar.impersonateHandler)
	r.POST("/auth/exit-impersonation", middleware.AuthMiddleware(), ar.exitImpersonationHandler)

	// Mailbox OAuth connect flows. The mailbox name maps onto a goth
	// provider; connections are stored per tenant.
	for _, mailbox := range []string{"gmail", "ms365"} {
		r.GET("/"+mailbox+"/connect", middleware.AuthMiddleware(), ar.mailboxConnectHandler(mailbox))
		r.GET("/"+mailbox+"/callback", middleware.AuthMiddleware(), ar.mailboxCallbackHandler(mailbox))
		r.GET("/"+mailbox+"/status", middleware.AuthMiddleware(), ar.mailboxStatusHandler(mailbox))
		r.POST("/"+mailbox+"/disconnect", middleware.AuthMiddleware(), ar.mailboxDisconnectHandler(mailbox))
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ar *AuthRoutes) loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	db := ar.server.GetDB()
	user, err := db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.IssueToken(user.ID, user.TenantID.String(), user.Role, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	auth.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"user_id":   user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"role":      user.Role,
		"tenant_id": user.TenantID,
	})
}

func (ar *AuthRoutes) logoutHandler(c *gin.Context) {
	auth.ClearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (ar *AuthRoutes) meHandler(c *gin.Context) {
	user := currentUser(c)
	claims := c.MustGet("claims").(*auth.Claims)

	resp := gin.H{
		"user_id":       user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          claims.Role,
		"tenant_id":     claims.TenantID,
		"impersonating": claims.Imp != nil,
	}
	if claims.Imp != nil {
		resp["tenant_name"] = claims.Imp.TenantName
	}
	c.JSON(http.StatusOK, resp)
}

type impersonateRequest struct {
	TenantID string `json:"tenant_id" binding:"required,uuid"`
	UserID   int    `json:"user_id" binding:"required"`
}

// impersonateHandler issues a token acting as another tenant's user, with
// the real actor recorded in the claims.
func (ar *AuthRoutes) impersonateHandler(c *gin.Context) {
	var req impersonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id and user_id are required"})
		return
	}

	actor := currentUser(c)
	db := ar.server.GetDB()

	target, err := db.GetUserByID(c.Request.Context(), req.UserID)
	if err != nil || target.TenantID.String() != req.TenantID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Target user not found in tenant"})
		return
	}

	tenant, err := db.GetTenantByID(c.Request.Context(), target.TenantID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	}

	token, err := auth.IssueToken(target.ID, target.TenantID.String(), target.Role, &auth.Impersonation{
		ActorID:    actor.ID,
		TenantName: tenant.Name,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	auth.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"impersonating": true, "tenant_name": tenant.Name})
}

// exitImpersonationHandler drops every auth cookie variant. The client then
// redirects to /login (or /dev for platform admins).
func (ar *AuthRoutes) exitImpersonationHandler(c *gin.Context) {
	auth.ClearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Impersonation ended", "redirect": "/login"})
}

func (ar *AuthRoutes) mailboxConnectHandler(mailbox string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := auth.ProviderForMailbox(mailbox)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown mailbox provider"})
			return
		}

		// Gothic routes on the provider query param, so hand it a request
		// shaped the way it expects.
		req := c.Request.Clone(c.Request.Context())
		req.URL.Path = "/auth/" + provider

		q := req.URL.Query()
		q.Add("provider", provider)
		req.URL.RawQuery = q.Encode()

		gothic.BeginAuthHandler(c.Writer, req)
	}
}

func (ar *AuthRoutes) mailboxCallbackHandler(mailbox string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := auth.ProviderForMailbox(mailbox)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown mailbox provider"})
			return
		}

		req := c.Request.Clone(c.Request.Context())
		req.URL.Path = "/auth/" + provider + "/callback"

		q := req.URL.Query()
		q.Add("provider", provider)
		req.URL.RawQuery = q.Encode()

		gothUser, err := gothic.CompleteUserAuth(c.Writer, req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		conn := &database.MailboxConnection{
			TenantID:     tenantID(c),
			Provider:     mailbox,
			Email:        gothUser.Email,
			AccessToken:  gothUser.AccessToken,
			RefreshToken: gothUser.RefreshToken,
			ExpiresAt:    gothUser.ExpiresAt,
		}
		if conn.ExpiresAt.IsZero() {
			conn.ExpiresAt = time.Now().Add(time.Hour)
		}

		if err := ar.server.GetDB().UpsertMailboxConnection(c.Request.Context(), conn); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save mailbox connection"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"connected": true, "provider": mailbox, "email": conn.Email})
	}
}

func (ar *AuthRoutes) mailboxStatusHandler(mailbox string) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := ar.server.GetDB().GetMailboxConnection(c.Request.Context(), tenantID(c), mailbox)
		if err == database.ErrNotFound {
			c.JSON(http.StatusOK, gin.H{"connected": false, "provider": mailbox})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load connection"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"connected":  true,
			"provider":   mailbox,
			"email":      conn.Email,
			"expires_at": conn.ExpiresAt,
		})
	}
}

func (ar *AuthRoutes) mailboxDisconnectHandler(mailbox string) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := ar.server.GetDB().DeleteMailboxConnection(c.Request.Context(), tenantID(c), mailbox)
		if err == database.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "No " + mailbox + " connection"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"connected": false, "provider": mailbox})
	}
}
