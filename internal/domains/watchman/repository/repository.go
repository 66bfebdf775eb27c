package repository

import (
	"context"
	"parking/infras/otel"
	"parking/infras/postgres"
	"parking/internal/domains/watchman/model"
	"parking/shared"
	gRepo "parking/shared/repository"
)

type Watchman interface {
	GetByID(ctx context.Context, id string) (model.Watchman, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Watchman]
}

func New(db *postgres.Connection, otel otel.Otel) Watchman {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Watchman](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

func (r *repositoryImpl) GetByID(ctx context.Context, id string) (model.Watchman, error) {
	return r.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
}
