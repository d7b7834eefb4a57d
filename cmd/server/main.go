package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jomko/go-session-api/auth"
	"github.com/jomko/go-session-api/internal/config"
	"github.com/jomko/go-session-api/internal/migrations"
	"github.com/jomko/go-session-api/passwordreset"
	fakeresetrepo "github.com/jomko/go-session-api/passwordreset/repofake"
	pgresetrepo "github.com/jomko/go-session-api/passwordreset/repopg"
	"github.com/jomko/go-session-api/server"
	"github.com/jomko/go-session-api/sessions"
	fakesessionrepo "github.com/jomko/go-session-api/sessions/repofake"
	redissessionrepo "github.com/jomko/go-session-api/sessions/reporedis"
	"github.com/jomko/go-session-api/token"
	"github.com/jomko/go-session-api/users"
	fakeuserrepo "github.com/jomko/go-session-api/users/repofake"
	pguserrepo "github.com/jomko/go-session-api/users/repopg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	handler, cleanup, err := buildServer(c)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildServer(c config.Config) (*server.Server, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	userRepo, resetRepo, pgCleanup, err := buildStores(c)
	if err != nil {
		return nil, cleanup, err
	}
	if pgCleanup != nil {
		cleanups = append(cleanups, pgCleanup)
	}

	sessionRepo, redisCleanup, err := buildSessionStore(c)
	if err != nil {
		return nil, cleanup, err
	}
	if redisCleanup != nil {
		cleanups = append(cleanups, redisCleanup)
	}

	tokenManager, err := token.NewManager(c.GetTokenSigningKey())
	if err != nil {
		return nil, cleanup, fmt.Errorf("token manager: %w", err)
	}

	authService, err := auth.NewService(
		auth.Repos{Users: userRepo, Sessions: sessionRepo},
		tokenManager,
		auth.WithSessionTTL(c.GetSessionTTL()),
	)
	if err != nil {
		return nil, cleanup, fmt.Errorf("auth service: %w", err)
	}

	dispatcher, err := passwordreset.NewDispatcher(
		userRepo,
		resetRepo,
		passwordreset.NewSMTPNotifier(c),
		c.GetBaseURL(),
		passwordreset.WithPolicy(c.GetResetPolicy()),
		passwordreset.WithTokenTTL(c.GetResetTokenTTL()),
	)
	if err != nil {
		return nil, cleanup, fmt.Errorf("reset dispatcher: %w", err)
	}

	srv, err := server.New(c, authService, dispatcher)
	if err != nil {
		return nil, cleanup, fmt.Errorf("server: %w", err)
	}
	return srv, cleanup, nil
}

// buildStores selects the Postgres repositories when DATABASE_URL is set and
// falls back to in-memory stores (with a seeded demo account in DEV).
func buildStores(c config.Config) (users.UserRepo, passwordreset.Repo, func(), error) {
	dsn := c.GetDatabaseURL()
	if dsn == "" {
		userRepo := fakeuserrepo.NewFakeUserRepo()
		if c.GetEnv() == "DEV" {
			if err := seedDemoUser(userRepo); err != nil {
				return nil, nil, nil, fmt.Errorf("seed demo user: %w", err)
			}
		}
		return userRepo, fakeresetrepo.NewFakeResetRepo(), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := migrations.Run(ctx, dsn); err != nil {
		return nil, nil, nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("pgx ping: %w", err)
	}
	log.Info().Msg("using postgres credential store")
	return pguserrepo.NewPgUserRepo(pool), pgresetrepo.NewPgResetRepo(pool), pool.Close, nil
}

func buildSessionStore(c config.Config) (sessions.Repo, func(), error) {
	addr := c.GetRedisAddr()
	if addr == "" {
		return fakesessionrepo.NewFakeSessionRepo(), nil, nil
	}
	repo, err := redissessionrepo.NewRedisSessionRepo(addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		return nil, nil, fmt.Errorf("redis session store: %w", err)
	}
	log.Info().Str("addr", addr).Msg("using redis session store")
	return repo, repo.Close, nil
}

// seedDemoUser gives the in-memory DEV setup a usable account.
func seedDemoUser(repo users.UserRepo) error {
	hash, err := users.HashPassword(config.GetEnv("DEMO_PASSWORD", "Password1"))
	if err != nil {
		return err
	}
	return repo.Upsert(context.Background(), &users.User{
		Name:         "Demo User",
		Email:        config.GetEnv("DEMO_EMAIL", "demo@example.com"),
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
}

func setupLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
