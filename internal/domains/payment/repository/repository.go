package repository

import (
	"context"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/internal/domains/payment/model"
	"parking/shared"
	"parking/shared/constant"
	gDto "parking/shared/dto"
	gRepo "parking/shared/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

type Payment interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, payment model.Payment) error
	GetByTransactionForUpdateTx(ctx context.Context, tx *sqlx.Tx, transactionID string) (model.Payment, error)
	GetPendingByBookingTx(ctx context.Context, tx *sqlx.Tx, bookingID string) ([]model.Payment, error)
	GetByBooking(ctx context.Context, bookingID string) ([]model.Payment, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id, status, actor string, at time.Time) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Payment]
}

func New(db *postgres.Connection, otel otel.Otel) Payment {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Payment](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

var oldestFirst = gDto.QueryParams{
	SortBy:  model.TableName + "." + constant.FieldCreatedAt,
	SortDir: gDto.SortDirAsc,
}

func (r *repositoryImpl) GetByTransactionForUpdateTx(ctx context.Context, tx *sqlx.Tx, transactionID string) (model.Payment, error) {
	return r.GetForUpdateTx(ctx, tx, shared.FilterByField(model.FieldTransactionID, transactionID, model.TableName))
}

func (r *repositoryImpl) GetPendingByBookingTx(ctx context.Context, tx *sqlx.Tx, bookingID string) ([]model.Payment, error) {
	return r.GetAllTx(ctx, tx, oldestFirst, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldBookingID, Value: bookingID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldPaymentStatus, Value: model.StatusPending, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	})
}

func (r *repositoryImpl) GetByBooking(ctx context.Context, bookingID string) ([]model.Payment, error) {
	return r.GetAll(ctx, oldestFirst, shared.FilterByField(model.FieldBookingID, bookingID, model.TableName))
}

func (r *repositoryImpl) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id, status, actor string, at time.Time) error {
	return r.UpdateTx(ctx, tx, map[string]any{
		model.FieldPaymentStatus: status,
		constant.FieldModifiedAt: at,
		constant.FieldModifiedBy: actor,
	}, shared.FilterByID(id, model.FieldID, model.TableName))
}
