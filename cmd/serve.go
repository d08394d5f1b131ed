package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"loan-scheduler/config"
	"loan-scheduler/events"
	httpLayer "loan-scheduler/http"
	"loan-scheduler/logger"
	"loan-scheduler/repository"
	"loan-scheduler/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the loan API server",
	Long: `Start the HTTP API. Configuration comes from the environment (and a .env
file when present):

  PORT, FRONTEND_URL
  DATA_BACKEND (memory|sqlite), SQLITE_DB_PATH
  REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, CACHE_TTL
  RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW
  AMQP_URL, AMQP_EXCHANGE, AMQP_ROUTING_KEY
  LOG_LEVEL, LOG_FORMAT, LOG_TIME_FORMAT, LOG_OUTPUT`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "HTTP port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg := config.Load()
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn().Err(err).Msg("error releasing resource")
			}
		}
	}()

	var repo repository.LoanRepository
	switch cfg.DataBackend {
	case "sqlite":
		sqliteRepo, err := repository.NewSQLiteLoanRepository(cfg.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("initialize sqlite repository: %w", err)
		}
		closers = append(closers, sqliteRepo)
		repo = sqliteRepo
		log.Info().Str("path", cfg.SQLiteDBPath).Msg("using sqlite repository")
	default:
		repo = repository.NewLoanRepositoryMemory()
		log.Info().Msg("using in-memory repository")
	}

	var cache repository.CacheRepository = repository.NewMemoryCache()
	if cfg.RedisAddr != "" {
		redisCache, err := repository.ConnectRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, caching schedules in memory")
		} else {
			closers = append(closers, redisCache)
			cache = redisCache
			log.Info().Str("addr", cfg.RedisAddr).Msg("caching schedules in redis")
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			log.Warn().Err(err).Msg("AMQP unavailable, loan events disabled")
		} else {
			closers = append(closers, amqpPublisher)
			publisher = amqpPublisher
		}
	}

	loanService := service.NewLoanService(repo, cache, publisher)
	comparisonService := service.NewComparisonService(loanService)

	limiter := httpLayer.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer limiter.Stop()

	router := httpLayer.NewRouter(
		httpLayer.NewLoanHandler(loanService),
		httpLayer.NewComparisonHandler(comparisonService),
		limiter,
		[]string{cfg.FrontendURL},
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("server exited")
	return nil
}
