package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/repository"
)

func setupTestDB(t *testing.T) (*sqlx.DB, func()) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)

	require.NoError(t, applyMigrations(db))

	cleanup := func() {
		_ = db.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func applyMigrations(db *sqlx.DB) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func cleanupTestData(db *sqlx.DB) {
	_, _ = db.Exec("TRUNCATE TABLE users, submissions, messages CASCADE")
}

func seedUser(t *testing.T, repo repository.Repository) *models.User {
	t.Helper()
	user := &models.User{
		ID:          uuid.New(),
		FirstName:   "Ada",
		LastName:    "Lovelace",
		AreaCode:    "1",
		PhoneNumber: "5550100",
		Timezone:    "America/New_York",
	}
	require.NoError(t, repo.User().Create(context.Background(), user))
	return user
}

func seedSubmission(t *testing.T, repo repository.Repository, userID uuid.UUID, repeat models.RepeatPolicy) *models.Submission {
	t.Helper()
	sub := &models.Submission{
		ID:            uuid.New(),
		UserID:        userID,
		UploadedFiles: []string{},
		Cadence:       models.CadenceDaily,
		Repeat:        repeat,
		Timezone:      "America/New_York",
		StartTime:     time.Date(2025, 3, 2, 14, 0, 0, 0, time.UTC),
	}
	sub.TextField.String, sub.TextField.Valid = "some text", true
	require.NoError(t, repo.Submission().Create(context.Background(), sub))
	return sub
}
