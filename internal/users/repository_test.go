package users

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docflow/review-service/internal/database"
	"github.com/docflow/review-service/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func runUserRepoContract(t *testing.T, repo UserRepository) {
	ctx := context.Background()
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "U1", Name: "Uma", Email: "uma@example.com", Role: models.RoleUser, CreatedAt: first, UpdatedAt: first}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "A1", Name: "Ava", Role: models.RoleApprover, CreatedAt: first, UpdatedAt: first}))

	// promoted later
	later := first.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "U1", Name: "Uma B", Email: "uma@example.com", Role: models.RoleAdmin, UpdatedAt: later}))

	got, err := repo.GetMany(ctx, []string{"U1", "A1", "nobody"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Uma B", got["U1"].Name)
	require.Equal(t, models.RoleAdmin, got["U1"].Role)
	require.True(t, got["U1"].CreatedAt.Equal(first), "created at %v", got["U1"].CreatedAt)
	require.Equal(t, models.RoleApprover, got["A1"].Role)

	none, err := repo.GetMany(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestMemoryUserRepository(t *testing.T) {
	runUserRepoContract(t, NewMemoryUserRepository())
}

func TestPostgresUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("review"),
		postgres.WithUsername("review"),
		postgres.WithPassword("review"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.MigratePostgres(ctx, pool))

	runUserRepoContract(t, NewPostgresUserRepository(pool))
}

var mongoDBs atomic.Int32

func TestMongoUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongoContainer.Terminate(ctx) })

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := database.ConnectMongo(ctx, uri, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	db := client.Database(fmt.Sprintf("users_%d", mongoDBs.Add(1)))
	runUserRepoContract(t, NewMongoUserRepository(db.Collection("users")))
}
