package postgres

import (
	"context"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories"
	"gorm.io/gorm"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

func (r *ResultPostgreSQL) Append(ctx context.Context, result *models.ExamResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *ResultPostgreSQL) GetByStudent(ctx context.Context, login string) ([]*models.ExamResult, error) {
	var results []*models.ExamResult
	err := r.db.WithContext(ctx).
		Where("student_login = ?", login).
		Order("completed_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ResultPostgreSQL) ListAll(ctx context.Context) ([]*models.ExamResult, error) {
	var results []*models.ExamResult
	err := r.db.WithContext(ctx).
		Order("completed_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
