package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/config"
	"trivia-match-service/internal/infra/memory"
	pgarchive "trivia-match-service/internal/infra/postgres"
	redisinfra "trivia-match-service/internal/infra/redis"
	transport "trivia-match-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia match server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	codeTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var codes app.CodeRegistry = memory.NewCodeRegistry()
	if redisClient != nil {
		codes = redisinfra.NewCodeRegistry(redisClient, codeTTL)
	}

	archiveTTL := config.TTLDuration(cfg.Archive.TTL, 10*time.Minute)
	var archiver app.Archiver
	var loader memory.ArchiveLoader
	if pool != nil {
		store := pgarchive.NewArchiveStore(pool)
		archiver = store
		loader = store
	} else {
		store := memory.NewArchiveStore()
		archiver = store
		loader = store
	}
	var archives app.ArchiveRepository
	if redisClient != nil {
		archives = redisinfra.NewArchiveRepository(redisClient, loader, archiveTTL)
	} else {
		archives = memory.NewArchiveRepository(loader, archiveTTL)
	}

	scheduler := memory.NewScheduler()
	defer scheduler.Close()

	service := app.NewGameService(memory.NewStore(), scheduler, codes, archiver)
	wsHandler := transport.NewWSHandler(service, archives)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia match service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
