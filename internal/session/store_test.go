package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
)

func newTestSession(login, subject string) *Session {
	return &Session{
		StudentLogin: login,
		Subject:      subject,
		Questions:    []models.Question{{ID: "q1", Type: models.Boolean, CorrectAnswer: "VRAI"}},
		StartedAt:    time.Now(),
		Duration:     30 * time.Minute,
	}
}

func TestStore_PutReplacesOpenSession(t *testing.T) {
	store := NewStore()

	store.Put(newTestSession("e.nabil", "Conception et Prototypage"))
	store.Put(newTestSession("e.nabil", "Fabrication Additive"))

	sess := store.Get("e.nabil")
	require.NotNil(t, sess)
	assert.Equal(t, "Fabrication Additive", sess.Subject)
	assert.Equal(t, 1, store.Len())
}

func TestStore_TakeConsumesExactlyOnce(t *testing.T) {
	store := NewStore()
	store.Put(newTestSession("e.nabil", "Conception et Prototypage"))

	first := store.Take("e.nabil")
	require.NotNil(t, first)
	assert.Nil(t, store.Take("e.nabil"))
	assert.Equal(t, 0, store.Len())
}

func TestStore_SessionsAreIsolatedByLogin(t *testing.T) {
	store := NewStore()
	store.Put(newTestSession("a.karim", "Conception et Prototypage"))
	store.Put(newTestSession("b.sara", "Conception et Prototypage"))

	require.NotNil(t, store.Take("a.karim"))
	sess := store.Get("b.sara")
	require.NotNil(t, sess)
	assert.Equal(t, "b.sara", sess.StudentLogin)
}

func TestStore_RestoreAfterFailedSubmit(t *testing.T) {
	store := NewStore()
	store.Put(newTestSession("e.nabil", "Conception et Prototypage"))

	sess := store.Take("e.nabil")
	require.NotNil(t, sess)
	store.Restore(sess)

	restored := store.Get("e.nabil")
	require.NotNil(t, restored)
	assert.Equal(t, sess.StartedAt, restored.StartedAt)
}

func TestSession_Overtime(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	sess := &Session{StartedAt: start, Duration: 30 * time.Minute}

	assert.False(t, sess.Overtime(start.Add(29*time.Minute)))
	assert.False(t, sess.Overtime(start.Add(30*time.Minute)))
	assert.True(t, sess.Overtime(start.Add(30*time.Minute+time.Second)))

	assert.Equal(t, 29*time.Minute, sess.Elapsed(start.Add(29*time.Minute)))
}
