package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "rentmatch/internal/adapters/http_server"
	"rentmatch/internal/adapters/observability"
	redisad "rentmatch/internal/adapters/redis"
	"rentmatch/internal/app"
	"rentmatch/internal/shared"
	mysqlrepo "rentmatch/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	catalog := app.NewCatalogService(repo, cache, cfg.CacheTTL, log.Logger)
	engine := app.NewFilterEngine(app.ParseFailurePolicy(cfg.FilterPolicy), log.Logger)
	negotiations := app.NewNegotiationService(repo, log.Logger)
	messaging := app.NewMessagingSync(repo, log.Logger)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Catalog:      catalog,
		Engine:       engine,
		Negotiations: negotiations,
		Messaging:    messaging,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
