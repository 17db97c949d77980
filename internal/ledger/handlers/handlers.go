// Package handlers provides the HTTP surface of the service, bridging
// gin requests to the controller, reconciliation engine, and report
// assembly. No business logic lives here.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/autohive/arledger/internal/ledger/auth"
	e "github.com/autohive/arledger/internal/ledger/errors"
	"github.com/autohive/arledger/internal/ledger/models"
	"github.com/autohive/arledger/internal/ledger/reconcile"
	"github.com/autohive/arledger/internal/ledger/report"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// genericFailure is the only message unexpected failures surface to the
// caller; the detail goes to the log sink.
const genericFailure = "An error occurred. Please try again."

// Reconciler runs one ledger extract against the store.
type Reconciler interface {
	Reconcile(ctx context.Context, rows []reconcile.Row) (*reconcile.Result, error)
}

// Controller is the manual-operation service layer.
type Controller interface {
	UpdateCompanyDetails(ctx context.Context, employee string, update *models.CompanyUpdate) (*models.Company, error)
	UpdateNotes(ctx context.Context, employee string, companyID uuid.UUID, notes string) error
	AddAlternativeContact(ctx context.Context, employee string, companyID uuid.UUID, contact *models.AlternativeContact) error
	TogglePaidStatus(ctx context.Context, employee string, companyID uuid.UUID, contractNumber string) (*models.Contract, error)
	LogActivity(ctx context.Context, employee string, companyID uuid.UUID, action, details string) (*models.ActivityLog, error)
}

// Reporter assembles the read-only views.
type Reporter interface {
	Dashboard(ctx context.Context) (*report.Dashboard, error)
	Stats(ctx context.Context) (*report.Stats, error)
	CurrentAR(ctx context.Context) (*report.CurrentAR, error)
	CompanyList(ctx context.Context, query string) ([]report.CompanySummary, error)
	CompanyProfile(ctx context.Context, id uuid.UUID) (*report.CompanyProfile, error)
	ActivityFeed(ctx context.Context) (*report.ActivityFeed, error)
}

type Handler struct {
	reconciler Reconciler
	controller Controller
	reporter   Reporter
	jwtSecret  string
	logger     *zap.Logger
}

func NewHandler(reconciler Reconciler, controller Controller, reporter Reporter, jwtSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		reconciler: reconciler,
		controller: controller,
		reporter:   reporter,
		jwtSecret:  jwtSecret,
		logger:     logger.Named("http_handler"),
	}
}

// Login exchanges an employee name for an identity token. Any non-empty
// name is accepted; there is no employee directory to check against.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Employee string `json:"employee" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select an employee to log in."})
		return
	}

	token, err := auth.GenerateToken(req.Employee, h.jwtSecret)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericFailure})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "employee": req.Employee})
}

// UploadAR accepts a multipart .xlsx ledger extract, parses it, and runs
// reconciliation. A schema error surfaces verbatim; anything unexpected
// becomes the generic failure message.
func (h *Handler) UploadAR(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Please upload an Excel file."})
		return
	}

	rows, err := reconcile.ParseWorkbook(file)
	if err != nil {
		var schemaErr *e.SchemaError
		if errors.As(err, &schemaErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": schemaErr.Error()})
			return
		}
		h.logger.Error("Failed to parse ledger upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "An error occurred while processing the file. Please try again."})
		return
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), rows)
	if err != nil {
		h.logger.Error("Reconciliation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing the file. Please try again."})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Dashboard(c *gin.Context) {
	dashboard, err := h.reporter.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.reporter.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) CurrentAR(c *gin.Context) {
	ar, err := h.reporter.CurrentAR(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ar)
}

func (h *Handler) ListCompanies(c *gin.Context) {
	companies, err := h.reporter.CompanyList(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (h *Handler) CompanyProfile(c *gin.Context) {
	id, ok := h.companyID(c)
	if !ok {
		return
	}
	profile, err := h.reporter.CompanyProfile(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	id, ok := h.companyID(c)
	if !ok {
		return
	}
	var req struct {
		ContactPerson *string `json:"contact_person"`
		PhoneNumber   *string `json:"phone_number"`
		Email         *string `json:"email"`
		Address       *string `json:"address"`
		Notes         *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := &models.CompanyUpdate{
		ID:            id,
		ContactPerson: req.ContactPerson,
		PhoneNumber:   req.PhoneNumber,
		Email:         req.Email,
		Address:       req.Address,
		Notes:         req.Notes,
	}
	company, err := h.controller.UpdateCompanyDetails(c.Request.Context(), auth.EmployeeFromContext(c), update)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *Handler) UpdateNotes(c *gin.Context) {
	id, ok := h.companyID(c)
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.controller.UpdateNotes(c.Request.Context(), auth.EmployeeFromContext(c), id, req.Notes); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notes updated."})
}

func (h *Handler) AddAlternativeContact(c *gin.Context) {
	id, ok := h.companyID(c)
	if !ok {
		return
	}
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contact := &models.AlternativeContact{Name: req.Name, Phone: req.Phone, Email: req.Email}
	if err := h.controller.AddAlternativeContact(c.Request.Context(), auth.EmployeeFromContext(c), id, contact); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *Handler) TogglePaidStatus(c *gin.Context) {
	id, ok := h.companyID(c)
	if !ok {
		return
	}
	contract, err := h.controller.TogglePaidStatus(c.Request.Context(), auth.EmployeeFromContext(c), id, c.Param("number"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) LogActivity(c *gin.Context) {
	id, ok := h.companyID(c)
	if !ok {
		return
	}
	var req struct {
		Action  string `json:"action" binding:"required"`
		Details string `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity submission."})
		return
	}
	entry, err := h.controller.LogActivity(c.Request.Context(), auth.EmployeeFromContext(c), id, req.Action, req.Details)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) ActivityFeed(c *gin.Context) {
	feed, err := h.reporter.ActivityFeed(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handler) companyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company ID"})
		return uuid.Nil, false
	}
	return id, true
}

// fail maps service errors onto HTTP statuses, hiding internal detail
// from the caller.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, e.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, e.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericFailure})
	}
}
