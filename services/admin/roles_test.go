package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"courtly/models"
)

type fakeClaimsSetter struct {
	calls map[string]map[string]interface{}
	err   error
}

func (f *fakeClaimsSetter) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	if f.calls == nil {
		f.calls = make(map[string]map[string]interface{})
	}
	f.calls[uid] = claims
	return nil
}

func TestAssignEncargado(t *testing.T) {
	setter := &fakeClaimsSetter{}
	svc := &RoleService{Auth: setter, Logger: zap.NewNop()}

	resp, err := svc.AssignEncargado(context.Background(), models.RoleAdmin, "user-42")
	require.NoError(t, err)
	assert.Equal(t, "Rol de encargado asignado al usuario user-42", resp.Message)
	assert.Equal(t, models.RoleEncargado, setter.calls["user-42"]["role"])
}

func TestAssignEncargadoRequiresAdmin(t *testing.T) {
	setter := &fakeClaimsSetter{}
	svc := &RoleService{Auth: setter, Logger: zap.NewNop()}

	_, err := svc.AssignEncargado(context.Background(), models.RoleEncargado, "user-42")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, setter.calls)
}

func TestAssignEncargadoRequiresUserID(t *testing.T) {
	svc := &RoleService{Auth: &fakeClaimsSetter{}, Logger: zap.NewNop()}

	_, err := svc.AssignEncargado(context.Background(), models.RoleAdmin, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAssignEncargadoWrapsAuthFailure(t *testing.T) {
	authErr := errors.New("firebase unavailable")
	svc := &RoleService{Auth: &fakeClaimsSetter{err: authErr}, Logger: zap.NewNop()}

	_, err := svc.AssignEncargado(context.Background(), models.RoleAdmin, "user-42")
	assert.ErrorIs(t, err, authErr)
}
