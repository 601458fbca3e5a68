package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/cache"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories"
)

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) HasAttempted(ctx context.Context, login, subject string) (bool, error) {
	args := m.Called(ctx, login, subject)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) Record(ctx context.Context, record *models.AttemptRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByStudent(ctx context.Context, login string) ([]*models.AttemptRecord, error) {
	args := m.Called(ctx, login)
	if records := args.Get(0); records != nil {
		return records.([]*models.AttemptRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAttemptRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Append(ctx context.Context, result *models.ExamResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetByStudent(ctx context.Context, login string) ([]*models.ExamResult, error) {
	args := m.Called(ctx, login)
	if results := args.Get(0); results != nil {
		return results.([]*models.ExamResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockResultRepository) ListAll(ctx context.Context) ([]*models.ExamResult, error) {
	args := m.Called(ctx)
	if results := args.Get(0); results != nil {
		return results.([]*models.ExamResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockStudentRepository is a mock implementation of StudentRepository
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) GetByLogin(ctx context.Context, login string) (*models.Student, error) {
	args := m.Called(ctx, login)
	if student := args.Get(0); student != nil {
		return student.(*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentRepository) Upsert(ctx context.Context, student *models.Student) error {
	args := m.Called(ctx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) List(ctx context.Context) ([]*models.Student, error) {
	args := m.Called(ctx)
	if students := args.Get(0); students != nil {
		return students.([]*models.Student), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStudentRepository) CountStudents(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRepository aggregates the store mocks. WithTransaction runs the
// function against the same mocks, which is enough to assert that ledger and
// archive writes happen together.
type MockRepository struct {
	attempt *MockAttemptRepository
	result  *MockResultRepository
	student *MockStudentRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		attempt: new(MockAttemptRepository),
		result:  new(MockResultRepository),
		student: new(MockStudentRepository),
	}
}

func (m *MockRepository) Attempt() repositories.AttemptRepository { return m.attempt }
func (m *MockRepository) Result() repositories.ResultRepository   { return m.result }
func (m *MockRepository) Student() repositories.StudentRepository { return m.student }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// recordingCache remembers invalidations so tests can assert that stale
// entries are dropped. Reads always miss.
type recordingCache struct {
	cache.NoopCache
	deletedKeys     []string
	deletedPatterns []string
}

func (c *recordingCache) Delete(ctx context.Context, key string) error {
	c.deletedKeys = append(c.deletedKeys, key)
	return nil
}

func (c *recordingCache) DeletePattern(ctx context.Context, pattern string) error {
	c.deletedPatterns = append(c.deletedPatterns, pattern)
	return nil
}
