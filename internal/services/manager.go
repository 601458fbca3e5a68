package services

import (
	"log/slog"
	"math/rand"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/cache"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/events"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/questionbank"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/repositories"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/session"
)

// ServiceManager bundles the service layer behind one handle so the handler
// layer takes a single dependency.
type ServiceManager interface {
	Exam() ExamService
	Roster() RosterService
	Admin() AdminService
}

type serviceManager struct {
	exam   ExamService
	roster RosterService
	admin  AdminService
}

func NewServiceManager(
	repo repositories.Repository,
	bank *questionbank.Bank,
	curriculum questionbank.Curriculum,
	sessions *session.Store,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	jwtSecret string,
	rng *rand.Rand,
) ServiceManager {
	return &serviceManager{
		exam:   NewExamService(repo, bank, curriculum, sessions, cacheService, publisher, logger, rng),
		roster: NewRosterService(repo, cacheService, publisher, logger, jwtSecret),
		admin:  NewAdminService(repo, curriculum, cacheService, logger),
	}
}

func (m *serviceManager) Exam() ExamService     { return m.exam }
func (m *serviceManager) Roster() RosterService { return m.roster }
func (m *serviceManager) Admin() AdminService   { return m.admin }
