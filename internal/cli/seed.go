package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quiz-game-service/internal/config"
	"quiz-game-service/internal/fixture"
	"quiz-game-service/internal/infra/postgres"
	redisrepo "quiz-game-service/internal/infra/redis"
	"quiz-game-service/internal/logger"
)

// NewSeedCmd loads quiz definitions from a YAML fixture into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load quizzes from a YAML fixture into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			quizzes := fixture.Sample()
			if file != "" {
				if quizzes, err = fixture.Load(file); err != nil {
					return err
				}
			}

			db := postgres.OpenDB(cfg.Postgres.URL)
			defer db.Close()
			store := postgres.NewStore(db)

			var cache *redisrepo.QuizRepository
			if client := newRedisClient(cfg); client != nil {
				defer client.Close()
				cache = redisrepo.NewQuizRepository(client, nil, 0)
			}

			log := logger.New("quiz-game", cfg.Log.Level)
			for _, q := range quizzes {
				if err := store.SaveQuiz(cmd.Context(), q); err != nil {
					return err
				}
				if cache != nil {
					if err := cache.Invalidate(cmd.Context(), q.ID); err != nil {
						log.WithError(err).WithField("quiz_id", q.ID).Warn("stale quiz may be served until its cache entry expires")
					}
				}
				log.WithField("quiz_id", q.ID).WithField("questions", len(q.Questions)).Info("quiz seeded")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture (defaults to the built-in sample quiz)")
	return cmd
}
