package postgres

import (
	"context"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) HasAttempted(ctx context.Context, login, subject string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.AttemptRecord{}).
		Where("student_login = ? AND subject = ?", login, subject).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *AttemptPostgreSQL) Record(ctx context.Context, record *models.AttemptRecord) error {
	return a.db.WithContext(ctx).Create(record).Error
}

func (a *AttemptPostgreSQL) GetByStudent(ctx context.Context, login string) ([]*models.AttemptRecord, error) {
	var records []*models.AttemptRecord
	err := a.db.WithContext(ctx).
		Where("student_login = ?", login).
		Order("completed_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *AttemptPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&models.AttemptRecord{}).Count(&count).Error
	return count, err
}
