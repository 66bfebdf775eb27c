package repository

import (
	"context"
	"fmt"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/internal/domains/organization/model"
	"parking/shared"
	"parking/shared/constant"
	gDto "parking/shared/dto"
	gRepo "parking/shared/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

type Organization interface {
	GetByID(ctx context.Context, id string) (model.Organization, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.Organization, error)
	GetActiveIDs(ctx context.Context) ([]string, error)
	UpdateCountersTx(ctx context.Context, tx *sqlx.Tx, id string, total, available int, actor string, at time.Time) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Organization]
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Organization {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Organization](model.EntityName, model.TableName, model.FieldID, db, otel),
		otel:       otel,
	}
}

func (r *repositoryImpl) GetByID(ctx context.Context, id string) (model.Organization, error) {
	return r.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
}

func (r *repositoryImpl) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.Organization, error) {
	return r.Repository.GetForUpdateTx(ctx, tx, shared.FilterByID(id, model.FieldID, model.TableName))
}

func (r *repositoryImpl) GetActiveIDs(ctx context.Context) ([]string, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".organization.GetActiveIDs")
	defer scope.End()

	orgs, err := r.GetAll(ctx, gDto.QueryParams{}, shared.FilterByField(model.FieldIsActive, true, model.TableName), model.FieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active organizations: %w", err)
	}

	ids := make([]string, len(orgs))
	for i, org := range orgs {
		ids[i] = org.ID
	}

	return ids, nil
}

func (r *repositoryImpl) UpdateCountersTx(ctx context.Context, tx *sqlx.Tx, id string, total, available int, actor string, at time.Time) error {
	return r.UpdateTx(ctx, tx, map[string]any{
		model.FieldTotalSlots:     total,
		model.FieldAvailableSlots: available,
		constant.FieldModifiedAt:  at,
		constant.FieldModifiedBy:  actor,
	}, shared.FilterByID(id, model.FieldID, model.TableName))
}
