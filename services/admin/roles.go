package admin

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"courtly/models"
)

// Errors surfaced to the admin transport layer.
var (
	ErrPermissionDenied = errors.New("only administrators can assign roles")
	ErrInvalidArgument  = errors.New("a user id is required")
)

// ClaimsSetter is the slice of the Firebase Auth client the role service
// needs.
type ClaimsSetter interface {
	SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error
}

var _ ClaimsSetter = (*auth.Client)(nil)

// RoleService assigns the encargado role through Firebase custom claims.
type RoleService struct {
	Auth   ClaimsSetter
	Logger *zap.Logger
}

// AssignEncargado grants the encargado role to the target user. Only callers
// holding the admin role may do so.
func (s *RoleService) AssignEncargado(ctx context.Context, callerRole, targetUserID string) (*models.AssignRoleResponse, error) {
	if callerRole != models.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	if targetUserID == "" {
		return nil, ErrInvalidArgument
	}

	claims := map[string]interface{}{"role": models.RoleEncargado}
	if err := s.Auth.SetCustomUserClaims(ctx, targetUserID, claims); err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	s.Logger.Info("encargado role assigned", zap.String("userId", targetUserID))
	return &models.AssignRoleResponse{
		Message: fmt.Sprintf("Rol de encargado asignado al usuario %s", targetUserID),
	}, nil
}
