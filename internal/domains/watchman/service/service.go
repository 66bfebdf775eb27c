package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"parking/infras/otel"
	"parking/internal/domains/watchman/model"
	"parking/internal/domains/watchman/repository"
	"parking/shared/constant"

	"github.com/rs/zerolog/log"
)

// Watchman authorizes gate-side actions against the caller in ctx.
type Watchman interface {
	Current(ctx context.Context) (model.Watchman, error)
	Authorize(ctx context.Context, organizationID string) error
}

type serviceImpl struct {
	repo repository.Watchman
	otel otel.Otel
}

func New(repo repository.Watchman, otel otel.Otel) Watchman {
	return &serviceImpl{
		repo: repo,
		otel: otel,
	}
}

// Current resolves the calling watchman. An inactive watchman is authorized for no organization.
func (s *serviceImpl) Current(ctx context.Context) (res model.Watchman, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".watchman.Current")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if role != constant.RoleWatchman || userID == "" {
		return res, model.ErrNotWatchman
	}

	res, err = s.repo.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("watchmanID", userID).Msg("failed to get watchman")

		return res, fmt.Errorf("failed to get watchman: %w", err)
	}

	if res.ID == "" {
		return res, model.ErrNotWatchman
	}

	if !res.IsActive {
		return res, model.ErrWrongOrganization
	}

	return res, nil
}

// Authorize lets admins and the system through; watchmen only for their own organization.
func (s *serviceImpl) Authorize(ctx context.Context, organizationID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".watchman.Authorize")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	switch role {
	case constant.RoleAdmin, constant.RoleSystem:
		return nil
	case constant.RoleWatchman:
	default:
		return model.ErrNotWatchman
	}

	watchman, err := s.Current(ctx)
	if err != nil {
		return err
	}

	if watchman.OrganizationID != organizationID {
		return model.ErrWrongOrganization
	}

	return nil
}
