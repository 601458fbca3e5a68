package postgres

import (
	"context"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

func (s *StudentPostgreSQL) GetByLogin(ctx context.Context, login string) (*models.Student, error) {
	var student models.Student
	if err := s.db.WithContext(ctx).First(&student, "login = ?", login).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// Upsert inserts or refreshes a roster row by login. Bulk import reuses it so
// re-importing a sheet updates names and programmes instead of failing.
func (s *StudentPostgreSQL) Upsert(ctx context.Context, student *models.Student) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "login"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"last_name", "first_name", "password_hash",
				"department", "track", "year", "role", "email", "updated_at",
			}),
		}).
		Create(student).Error
}

func (s *StudentPostgreSQL) List(ctx context.Context) ([]*models.Student, error) {
	var students []*models.Student
	err := s.db.WithContext(ctx).
		Order("last_name, first_name").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (s *StudentPostgreSQL) CountStudents(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("role = ?", models.RoleStudent).
		Count(&count).Error
	return count, err
}
