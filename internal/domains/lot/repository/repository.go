package repository

import (
	"context"
	"fmt"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/internal/domains/lot/model"
	"parking/shared"
	"parking/shared/constant"
	gDto "parking/shared/dto"
	gRepo "parking/shared/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

// Lots come back in fill order: priority_order, then id.
var fillOrder = gDto.QueryParams{
	SortBy:  fmt.Sprintf("%s.%s ASC, %s.%s", model.TableName, model.FieldPriorityOrder, model.TableName, model.FieldID),
	SortDir: gDto.SortDirAsc,
}

type Lot interface {
	GetByID(ctx context.Context, id string) (model.ParkingLot, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.ParkingLot, error)
	GetActiveByOrganization(ctx context.Context, organizationID string) ([]model.ParkingLot, error)
	GetActiveByOrganizationTx(ctx context.Context, tx *sqlx.Tx, organizationID string) ([]model.ParkingLot, error)
	UpdateCountersTx(ctx context.Context, tx *sqlx.Tx, id string, total, available int, actor string, at time.Time) error
}

type repositoryImpl struct {
	gRepo.Repository[model.ParkingLot]
}

func New(db *postgres.Connection, otel otel.Otel) Lot {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.ParkingLot](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

func activeByOrganization(organizationID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldOrganizationID, Value: organizationID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldIsActive, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}
}

func (r *repositoryImpl) GetByID(ctx context.Context, id string) (model.ParkingLot, error) {
	return r.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
}

func (r *repositoryImpl) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.ParkingLot, error) {
	return r.Repository.GetForUpdateTx(ctx, tx, shared.FilterByID(id, model.FieldID, model.TableName))
}

func (r *repositoryImpl) GetActiveByOrganization(ctx context.Context, organizationID string) ([]model.ParkingLot, error) {
	return r.GetAll(ctx, fillOrder, activeByOrganization(organizationID))
}

func (r *repositoryImpl) GetActiveByOrganizationTx(ctx context.Context, tx *sqlx.Tx, organizationID string) ([]model.ParkingLot, error) {
	return r.GetAllTx(ctx, tx, fillOrder, activeByOrganization(organizationID))
}

func (r *repositoryImpl) UpdateCountersTx(ctx context.Context, tx *sqlx.Tx, id string, total, available int, actor string, at time.Time) error {
	return r.UpdateTx(ctx, tx, map[string]any{
		model.FieldTotalSlots:     total,
		model.FieldAvailableSlots: available,
		constant.FieldModifiedAt:  at,
		constant.FieldModifiedBy:  actor,
	}, shared.FilterByID(id, model.FieldID, model.TableName))
}
