//go:build integration

package postgres

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"raffle_tracker/internal/domain"
	"raffle_tracker/internal/store"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *pgcontainer.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := pgcontainer.Run(s.ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("test_db"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		pgcontainer.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_kv.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM kv_entries")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) TestSetGet() {
	kvs := New(s.db)

	s.NoError(kvs.Set(s.ctx, "k1", `{"a":1}`))

	value, found, err := kvs.Get(s.ctx, "k1")
	s.NoError(err)
	s.True(found)
	s.Equal(`{"a":1}`, value)
}

func (s *PostgresIntegrationSuite) TestGet_Missing() {
	kvs := New(s.db)

	_, found, err := kvs.Get(s.ctx, "missing")
	s.NoError(err)
	s.False(found)
}

func (s *PostgresIntegrationSuite) TestSet_Overwrites() {
	kvs := New(s.db)

	s.NoError(kvs.Set(s.ctx, "k1", "old"))
	s.NoError(kvs.Set(s.ctx, "k1", "new"))

	value, found, err := kvs.Get(s.ctx, "k1")
	s.NoError(err)
	s.True(found)
	s.Equal("new", value)

	var count int
	s.NoError(s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM kv_entries"))
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestDelete() {
	kvs := New(s.db)

	s.NoError(kvs.Set(s.ctx, "k1", "v"))
	s.NoError(kvs.Delete(s.ctx, "k1"))

	_, found, err := kvs.Get(s.ctx, "k1")
	s.NoError(err)
	s.False(found)

	// Deleting a missing key is not an error.
	s.NoError(kvs.Delete(s.ctx, "k1"))
}

func (s *PostgresIntegrationSuite) TestStoreOverPostgres() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	raffleStore := store.New(New(s.db), store.Config{Timezone: "UTC"}, logger)

	endTime := time.Date(2023, 11, 13, 15, 0, 0, 0, time.UTC).Unix()
	_, err := raffleStore.Put(s.ctx, &domain.Raffle{
		PostID: "p1",
		Raffle: domain.RaffleDetails{EndTime: endTime},
	})
	s.NoError(err)

	got, err := raffleStore.Get(s.ctx, "p1")
	s.NoError(err)
	s.Equal("p1", got.PostID)

	days, err := raffleStore.ListDayKeys(s.ctx)
	s.NoError(err)
	s.Equal([]string{"2023-11-13"}, days)

	// State survives a fresh store over the same database.
	reopened := store.New(New(s.db), store.Config{Timezone: "UTC"}, logger)
	got, err = reopened.Get(s.ctx, "p1")
	s.NoError(err)
	s.Equal("p1", got.PostID)
}
