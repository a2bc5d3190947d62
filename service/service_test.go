package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/events"
	"github.com/abeme/go_bm_api/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.Rating{},
		&entity.Relationship{},
		&entity.RevealConsent{},
		&entity.Message{},
		&entity.LovePrint{},
		&entity.DailyPrompt{},
		&entity.DailyPromptAnswer{},
		&entity.CompatibilityReport{},
	))
	return db
}

type testEnv struct {
	db      *gorm.DB
	bus     *events.Bus
	users   *DBUserService
	rels    *RelationshipService
	ratings *RatingService
	msgs    *MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := logger.NewNop()
	bus := events.NewBus(nil, log)
	t.Cleanup(bus.Close)
	rels := NewRelationshipService(db, bus, log)
	return &testEnv{
		db:      db,
		bus:     bus,
		users:   NewUserService(db),
		rels:    rels,
		ratings: NewRatingService(db, rels),
		msgs:    NewMessageService(db, rels, bus),
	}
}

func (e *testEnv) addUser(t *testing.T, email, name string) *entity.User {
	t.Helper()
	u, err := e.users.CreateUser(entity.SignUpRequest{
		Email:       email,
		Password:    "secret123",
		DisplayName: name,
		Age:         27,
		Bio:         "hello",
		Interests:   "hiking, jazz",
	})
	require.NoError(t, err)
	return u
}
