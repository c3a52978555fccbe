// File: handlers/admin.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"courtly/models"
	adminService "courtly/services/admin"
	"courtly/services/reconcile"
)

// AdminHandler encapsulates elevated admin-level operations.
type AdminHandler struct {
	Roles   *adminService.RoleService
	Sweeper *reconcile.ExpirationSweeper
	Logger  *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(roles *adminService.RoleService, sweeper *reconcile.ExpirationSweeper, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Roles: roles, Sweeper: sweeper, Logger: logger}
}

// AssignRoleHandler grants the encargado role to a user. The caller's role
// comes from the JWT middleware.
func (ah *AdminHandler) AssignRoleHandler(c *gin.Context) {
	var req models.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	callerRole := c.GetString("role")
	resp, err := ah.Roles.AssignEncargado(c.Request.Context(), callerRole, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, adminService.ErrPermissionDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, adminService.ErrInvalidArgument):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			ah.Logger.Error("role assignment failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign role"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// TriggerSweepHandler runs the expiration sweep on demand, outside its
// regular cadence.
func (ah *AdminHandler) TriggerSweepHandler(c *gin.Context) {
	expired, err := ah.Sweeper.Sweep(c.Request.Context())
	if err != nil {
		ah.Logger.Error("manual sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"expired": expired})
}
