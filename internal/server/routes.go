package server

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"joinworks/internal/auth"
	"joinworks/internal/server/routes"
)

func (s *Server) RegisterRoutes() http.Handler {
	// Goth needs a session store for the OAuth handshake state.
	auth.InitGothProviders()
	routes.RegisterValidators()

	r := gin.Default()

	store := cookie.NewStore([]byte(os.Getenv("SESSION_SECRET")))
	r.Use(sessions.Sessions("joinworks-session", store))

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", s.healthHandler)

	routes.NewAuthRoutes(s).RegisterRoutes(r)
	routes.NewDevTaskRoutes(s).RegisterRoutes(r)
	routes.NewCalendarRoutes(s).RegisterRoutes(r)
	routes.NewSettingsRoutes(s).RegisterRoutes(r)
	routes.NewQuestionnaireRoutes(s).RegisterRoutes(r)
	routes.NewWorkshopRoutes(s).RegisterRoutes(r)
	routes.NewPdfTemplateRoutes(s).RegisterRoutes(r)
	routes.NewQuoteRoutes(s).RegisterRoutes(r)
	routes.NewRFIRoutes(s).RegisterRoutes(r)
	routes.NewAIRoutes(s).RegisterRoutes(r)
	routes.NewMaterialRoutes(s).RegisterRoutes(r)
	routes.NewClientRoutes(s).RegisterRoutes(r)

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.db.Health())
}
