package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postpilot/config"
	"postpilot/db"
	"postpilot/db/repository"
	"postpilot/db/service"
	"postpilot/generator"
	"postpilot/logger"
	"postpilot/scheduler"
	"postpilot/server"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const version = "v0.3.0"

func main() {
	godotenv.Load()

	var (
		configPath  = flag.String("config", "", "path to config.toml (defaults to the user config dir)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("postpilot %s\n", version)
		return
	}

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	if err := config.EnsureConfigExists(path); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		log.Fatal(err)
	}

	database, err := db.NewDatabase(cfg.Options.SaveLocation)
	if err != nil {
		logger.Logger.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	userRepo := repository.NewUserRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(database.DB)
	postRepo := repository.NewPostRepository(database.DB)
	interactionRepo := repository.NewInteractionRepository(database.DB)

	gen := generator.NewOpenAIClient(cfg.Generator)

	authService := service.NewAuthService(userRepo, sessionRepo, cfg.Auth.SessionTTL(), cfg.Auth.BcryptCost)
	profileService := service.NewProfileService(userRepo)
	postService := service.NewPostService(postRepo, userRepo, gen, cfg.Generator.Timeout())
	interactionService := service.NewInteractionService(interactionRepo, postRepo, userRepo, gen, cfg.Generator.Timeout())
	statsService := service.NewStatsService(postRepo, interactionRepo)

	srv := server.New(cfg, authService, profileService, postService, interactionService, statsService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(
			profileService, postService, authService,
			time.Duration(cfg.Scheduler.RefreshIntervalMins)*time.Minute,
			time.Duration(cfg.Scheduler.SessionPruneIntervalMins)*time.Minute,
		)
		profileService.SetListener(sched)
		g.Go(func() error {
			return sched.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, http.ErrServerClosed) {
		logger.Logger.Fatalf("server exited: %v", err)
	}
	logger.Logger.Printf("[INFO] shutdown complete")
}
