package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/middleware"
	"github.com/trackteamhq/portal/internal/repository"
	"github.com/trackteamhq/portal/internal/service"
	"go.uber.org/zap"
)

type AccountHandler struct {
	svc      *service.AccountService
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

func NewAccountHandler(svc *service.AccountService, profiles repository.ProfileRepository, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, profiles: profiles, logger: logger}
}

type createAccountRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Gender   string `json:"gender"`
	Phone    string `json:"phone"`
}

// Create handles POST /v1/accounts (coaching staff only).
func (h *AccountHandler) Create(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), service.CreateAccountInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Gender:   req.Gender,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, h.logger, err, "failed to create account")
		return
	}

	c.JSON(http.StatusCreated, acc)
}

type updateAccountRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	Gender   *string `json:"gender"`
}

// Update handles PATCH /v1/accounts/:id (coaching staff only).
func (h *AccountHandler) Update(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.svc.Update(c.Request.Context(), middleware.GetUserID(c), accountID, service.UpdateAccountInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		Gender:   req.Gender,
	})
	if err != nil {
		respondError(c, h.logger, err, "failed to update account")
		return
	}

	c.JSON(http.StatusOK, acc)
}

// Deactivate handles DELETE /v1/accounts/:id. This is a soft delete: the
// account is suspended indefinitely and drops out of the listing, but its
// rows — and every assignment/result referencing them — remain.
func (h *AccountHandler) Deactivate(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	if err := h.svc.Deactivate(c.Request.Context(), middleware.GetUserID(c), accountID); err != nil {
		respondError(c, h.logger, err, "failed to deactivate account")
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /v1/accounts (coaching staff only, active accounts).
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.svc.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to list accounts")
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// GetMe handles GET /v1/users/me.
func (h *AccountHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

type updateSelfRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// UpdateMe handles PATCH /v1/users/me. Contact fields only — role and
// gender are staff-managed.
func (h *AccountHandler) UpdateMe(c *gin.Context) {
	var req updateSelfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.svc.UpdateSelf(c.Request.Context(), middleware.GetUserID(c), req.FullName, req.Email, req.Phone)
	if err != nil {
		respondError(c, h.logger, err, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, acc)
}
