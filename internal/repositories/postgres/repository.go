package postgres

import (
	"context"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories"
	"gorm.io/gorm"
)

type gormRepository struct {
	db      *gorm.DB
	attempt repositories.AttemptRepository
	result  repositories.ResultRepository
	student repositories.StudentRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		db:      db,
		attempt: NewAttemptPostgreSQL(db),
		result:  NewResultPostgreSQL(db),
		student: NewStudentPostgreSQL(db),
	}
}

func (r *gormRepository) Attempt() repositories.AttemptRepository { return r.attempt }
func (r *gormRepository) Result() repositories.ResultRepository   { return r.result }
func (r *gormRepository) Student() repositories.StudentRepository { return r.student }

func (r *gormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *gormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
