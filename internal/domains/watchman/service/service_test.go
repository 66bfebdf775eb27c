package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"parking/infras/otel/mocks"
	"parking/internal/domains/watchman/model"
	"parking/internal/domains/watchman/service"
	"parking/internal/testutil"
	"parking/shared/constant"
)

func caller(id, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func TestWatchman_Authorize(t *testing.T) {
	store := testutil.NewStore()
	store.PutWatchman(model.Watchman{ID: "guard-1", OrganizationID: "org-1", IsActive: true})
	store.PutWatchman(model.Watchman{ID: "guard-2", OrganizationID: "org-1"})

	svc := service.New(store.WatchmanRepository(), mocks.NewOtel())

	tests := []struct {
		name    string
		ctx     context.Context
		org     string
		wantErr error
	}{
		{name: "own organization", ctx: caller("guard-1", constant.RoleWatchman), org: "org-1"},
		{name: "other organization", ctx: caller("guard-1", constant.RoleWatchman), org: "org-2", wantErr: model.ErrWrongOrganization},
		{name: "inactive watchman", ctx: caller("guard-2", constant.RoleWatchman), org: "org-1", wantErr: model.ErrWrongOrganization},
		{name: "unknown watchman", ctx: caller("guard-9", constant.RoleWatchman), org: "org-1", wantErr: model.ErrNotWatchman},
		{name: "admin", ctx: caller("admin-1", constant.RoleAdmin), org: "org-2"},
		{name: "system", ctx: caller(constant.RoleSystem, constant.RoleSystem), org: "org-2"},
		{name: "user", ctx: caller("user-1", constant.RoleUser), org: "org-1", wantErr: model.ErrNotWatchman},
		{name: "anonymous", ctx: context.Background(), org: "org-1", wantErr: model.ErrNotWatchman},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Authorize(tt.ctx, tt.org)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestWatchman_Current(t *testing.T) {
	store := testutil.NewStore()
	store.PutWatchman(model.Watchman{ID: "guard-1", OrganizationID: "org-1", IsActive: true})

	svc := service.New(store.WatchmanRepository(), mocks.NewOtel())

	watchman, err := svc.Current(caller("guard-1", constant.RoleWatchman))
	assert.NoError(t, err)
	assert.Equal(t, "org-1", watchman.OrganizationID)

	_, err = svc.Current(caller("admin-1", constant.RoleAdmin))
	assert.ErrorIs(t, err, model.ErrNotWatchman)
}
