package repositories

import (
	"context"
	"errors"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository is the durable attempt ledger. One row per completed
// (student, subject) pair; rows are never updated.
type AttemptRepository interface {
	// HasAttempted reports whether a ledger entry exists for the pair.
	HasAttempted(ctx context.Context, login, subject string) (bool, error)

	// Record inserts a ledger entry. Not idempotent: the engine's
	// precondition check is the only guard against a double write.
	Record(ctx context.Context, record *models.AttemptRecord) error

	GetByStudent(ctx context.Context, login string) ([]*models.AttemptRecord, error)
	Count(ctx context.Context) (int64, error)
}

// ResultRepository is the append-only result archive.
type ResultRepository interface {
	Append(ctx context.Context, result *models.ExamResult) error
	GetByStudent(ctx context.Context, login string) ([]*models.ExamResult, error)

	// ListAll returns every archived result, newest first.
	ListAll(ctx context.Context) ([]*models.ExamResult, error)
}

// StudentRepository is the roster store.
type StudentRepository interface {
	GetByLogin(ctx context.Context, login string) (*models.Student, error)
	Upsert(ctx context.Context, student *models.Student) error
	List(ctx context.Context) ([]*models.Student, error)
	CountStudents(ctx context.Context) (int64, error)
}

// Repository aggregates all stores and owns transaction scope.
type Repository interface {
	Attempt() AttemptRepository
	Result() ResultRepository
	Student() StudentRepository

	// WithTransaction runs fn against a repository bound to one database
	// transaction, committing on nil and rolling back on error.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// IsNotFoundError reports whether err is the storage layer's missing-row
// error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
