package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/migrate"
	"golang.org/x/sync/errgroup"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/fixture"
	"quiz-game-service/internal/infra/postgres"
	pgmigrations "quiz-game-service/internal/infra/postgres/migrations"
	redisrepo "quiz-game-service/internal/infra/redis"
)

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	store := migrateAndSeed(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	require.NoError(t, err)
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	require.NoError(t, err)
	defer redisClient.Close()

	catalog := redisrepo.NewQuizRepository(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	service := app.NewGameService(store, catalog)

	game, err := service.CreateGame(ctx, "quiz-1", "session-1")
	require.NoError(t, err)
	require.Equal(t, "q1", game.CurrentQuestionID)

	quiz, total, err := service.GetGameQuiz(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, "Warm-up", quiz.Title)
	require.Equal(t, 2, total)

	first, err := service.SubmitAnswer(ctx, game.ID, "q1", "a2")
	require.NoError(t, err)
	require.False(t, first.Finished)
	require.Equal(t, "q2", first.NextQuestionID)
	require.Equal(t, "a2", first.Correct.ID)

	second, err := service.SubmitAnswer(ctx, game.ID, "q2", "a4")
	require.NoError(t, err)
	require.True(t, second.Finished)
	require.Equal(t, "a3", second.Correct.ID)

	result, err := service.GetOrGenerateResult(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, "silver", result.Tier.ID)
	require.Equal(t, domain.Summary{Score: 10, TotalQuestions: 2}, result.Summary)

	again, err := service.GetOrGenerateResult(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, result, again)

	_, err = service.SubmitAnswer(ctx, game.ID, "q1", "a4")
	require.ErrorIs(t, err, domain.ErrAnswerNotFound)

	_, err = service.SubmitAnswer(ctx, "00000000-0000-0000-0000-000000000000", "q1", "a1")
	require.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestConcurrentSubmissionsAreAllRecorded(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	store := migrateAndSeed(t, ctx, pgURL)
	service := app.NewGameService(store, nil)

	game, err := service.CreateGame(ctx, "quiz-1", "session-1")
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			_, err := service.SubmitAnswer(ctx, game.ID, "q1", "a2")
			return err
		})
	}
	require.NoError(t, g.Wait())

	// five correct answers score 50, above every tier of the quiz
	_, err = service.GetOrGenerateResult(ctx, game.ID)
	require.ErrorIs(t, err, domain.ErrNoSuitableResult)
}

func migrateAndSeed(t *testing.T, ctx context.Context, dsn string) *postgres.Store {
	t.Helper()
	db := postgres.OpenDB(dsn)
	t.Cleanup(func() { _ = db.Close() })

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err := migrator.Migrate(ctx)
	require.NoError(t, err)

	store := postgres.NewStore(db)
	for _, quiz := range fixture.Sample() {
		require.NoError(t, store.SaveQuiz(ctx, quiz))
	}
	return store
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
