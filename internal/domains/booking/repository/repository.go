package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/internal/domains/booking/model"
	"parking/shared"
	"parking/shared/constant"
	gDto "parking/shared/dto"
	gRepo "parking/shared/repository"
	"time"

	"github.com/jmoiron/sqlx"
)

type Booking interface {
	GetByID(ctx context.Context, id string) (model.Booking, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.Booking, error)
	GetLiveByLotTx(ctx context.Context, tx *sqlx.Tx, lotID string) ([]model.Booking, error)
	GetLiveByOrganization(ctx context.Context, organizationID string, statuses []string, params gDto.QueryParams) ([]model.Booking, error)
	CountLiveByOrganization(ctx context.Context, organizationID string, statuses []string) (int, error)
	GetDueForActivation(ctx context.Context, now time.Time, limit int) ([]model.Booking, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, booking model.Booking) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, booking model.Booking) error
	UpdateQRImageURL(ctx context.Context, id, url string) error
	AppendEventTx(ctx context.Context, tx *sqlx.Tx, event model.Event) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	events gRepo.Repository[model.Event]
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		events:     gRepo.NewRepository[model.Event](model.EventEntityName, model.EventTableName, model.FieldID, db, otel),
	}
}

func byStatus(field string, value any, statuses []string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: field, Value: value, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldBookingStatus, Value: statuses, Operator: gDto.FilterOperatorIn, Table: model.TableName},
		},
	}
}

func (r *repositoryImpl) GetByID(ctx context.Context, id string) (model.Booking, error) {
	return r.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
}

func (r *repositoryImpl) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (model.Booking, error) {
	return r.Repository.GetForUpdateTx(ctx, tx, shared.FilterByID(id, model.FieldID, model.TableName))
}

// GetLiveByLotTx must run after the lot row is locked so the result cannot go stale.
func (r *repositoryImpl) GetLiveByLotTx(ctx context.Context, tx *sqlx.Tx, lotID string) ([]model.Booking, error) {
	return r.GetAllTx(ctx, tx, gDto.QueryParams{}, byStatus(model.FieldLotID, lotID, model.LiveStatuses),
		model.FieldID, model.FieldSlotNumber, model.FieldBookingStatus)
}

func (r *repositoryImpl) GetLiveByOrganization(ctx context.Context, organizationID string, statuses []string, params gDto.QueryParams) ([]model.Booking, error) {
	if params.SortBy == "" {
		params.SortBy = model.TableName + "." + model.FieldBookingStartTime
		params.SortDir = gDto.SortDirAsc
	}

	return r.GetAll(ctx, params, byStatus(model.FieldOrganizationID, organizationID, statuses))
}

func (r *repositoryImpl) CountLiveByOrganization(ctx context.Context, organizationID string, statuses []string) (int, error) {
	return r.Count(ctx, byStatus(model.FieldOrganizationID, organizationID, statuses))
}

// GetDueForActivation lists confirmed bookings whose start has passed, oldest first.
func (r *repositoryImpl) GetDueForActivation(ctx context.Context, now time.Time, limit int) ([]model.Booking, error) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldBookingStatus, Value: model.StatusConfirmed, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldBookingStartTime, Value: now, Operator: gDto.FilterOperatorLessEq, Table: model.TableName},
		},
	}

	params := gDto.QueryParams{
		Limit:   limit,
		SortBy:  model.TableName + "." + model.FieldBookingStartTime,
		SortDir: gDto.SortDirAsc,
	}

	return r.GetAll(ctx, params, filter, model.FieldID, model.FieldLotID, model.FieldBookingStartTime)
}

func (r *repositoryImpl) InsertTx(ctx context.Context, tx *sqlx.Tx, booking model.Booking) error {
	if err := r.Repository.InsertTx(ctx, tx, booking); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	return nil
}

// UpdateTx writes every field a lifecycle transition may touch.
func (r *repositoryImpl) UpdateTx(ctx context.Context, tx *sqlx.Tx, booking model.Booking) error {
	return r.Repository.UpdateTx(ctx, tx, map[string]any{
		model.FieldBookingStatus:   booking.BookingStatus,
		model.FieldPaymentStatus:   booking.PaymentStatus,
		model.FieldEntryTime:       booking.EntryTime,
		model.FieldExitTime:        booking.ExitTime,
		model.FieldOverstayMinutes: booking.OverstayMinutes,
		model.FieldPenaltyAmount:   booking.PenaltyAmount,
		model.FieldCancelledBy:     booking.CancelledBy,
		constant.FieldModifiedAt:   booking.ModifiedAt,
		constant.FieldModifiedBy:   booking.ModifiedBy,
	}, shared.FilterByID(booking.ID, model.FieldID, model.TableName))
}

func (r *repositoryImpl) UpdateQRImageURL(ctx context.Context, id, url string) error {
	return r.Update(ctx, map[string]any{
		model.FieldQRImageURL: url,
	}, shared.FilterByID(id, model.FieldID, model.TableName))
}

func (r *repositoryImpl) AppendEventTx(ctx context.Context, tx *sqlx.Tx, event model.Event) error {
	return r.events.InsertTx(ctx, tx, event)
}
