package handlers

import (
	"github.com/autohive/arledger/internal/ledger/auth"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the route table. Everything except login requires an
// employee identity token.
func NewRouter(h *Handler, jwtSecret string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/login", h.Login)

	authed := router.Group("/", auth.Middleware(jwtSecret))
	{
		authed.POST("/ar/upload", h.UploadAR)
		authed.GET("/ar/current", h.CurrentAR)
		authed.GET("/dashboard", h.Dashboard)
		authed.GET("/stats", h.Stats)
		authed.GET("/activity", h.ActivityFeed)

		authed.GET("/companies", h.ListCompanies)
		authed.GET("/companies/:id", h.CompanyProfile)
		authed.PUT("/companies/:id", h.UpdateCompany)
		authed.PUT("/companies/:id/notes", h.UpdateNotes)
		authed.POST("/companies/:id/contacts", h.AddAlternativeContact)
		authed.POST("/companies/:id/activity", h.LogActivity)
		authed.POST("/companies/:id/contracts/:number/toggle-paid", h.TogglePaidStatus)
	}

	return router
}
