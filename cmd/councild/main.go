// Command councild is the council engine's daemon: it loads
// configuration, connects the persistence layer, starts every system
// council's orchestration loop, and serves a minimal health/status/
// websocket surface until it receives a shutdown signal.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/thrasher-corp/goose"

	"github.com/pantheonelite/gocouncil/config"
	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/drivers/postgres"
	"github.com/pantheonelite/gocouncil/database/drivers/sqlite3"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/pantheonelite/gocouncil/llm"
	"github.com/pantheonelite/gocouncil/log"
	"github.com/pantheonelite/gocouncil/orchestrator"
)

// defaultVenueRateLimit bounds the default paper venue's call rate
// when no live venue integration is configured.
const defaultVenueRateLimit = 5.0

func main() {
	configPath := flag.String("config", "", "path to a config file (env GOCOUNCIL_* always applies)")
	healthAddr := flag.String("health-addr", ":8089", "address the healthz/status/ws HTTP surface listens on")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.System.Error(ctx, "config load failed", "error", err)
		os.Exit(1)
	}

	conn, err := connect(&cfg.Database)
	if err != nil {
		log.System.Error(ctx, "database connect failed", "error", err)
		os.Exit(1)
	}
	if err := migrate(conn.SQL, &cfg.Database); err != nil {
		log.System.Error(ctx, "migration failed", "error", err)
		os.Exit(1)
	}

	broadcaster := orchestrator.NewWebsocketBroadcaster()

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The orchestrator's own context is deliberately not runCtx: a
	// signal must drain the current cycle via orch.Stop(), not cancel
	// an in-flight transaction out from under it.
	orch := buildOrchestrator(conn, cfg, broadcaster)
	if err := orch.Start(context.Background(), nil); err != nil {
		log.System.Error(ctx, "orchestrator start failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Addr: *healthAddr, Handler: newRouter(conn, orch, broadcaster)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.System.Error(ctx, "http server error", "error", err)
		}
	}()

	log.System.Info(ctx, "councild started", "health_addr", *healthAddr)
	<-runCtx.Done()

	log.System.Info(ctx, "shutdown signal received, draining in-flight cycles")
	orch.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.System.Warn(ctx, "http shutdown error", "error", err)
	}
}

func buildOrchestrator(conn *database.Instance, cfg *config.Config, broadcaster *orchestrator.WebsocketBroadcaster) *orchestrator.Orchestrator {
	provider := llm.HoldProvider{}
	facade := llm.NewFacade(provider, 8)
	venues := orchestrator.NewPaperVenues(defaultVenueRateLimit, nil)

	orch := orchestrator.NewOrchestrator(conn, facade, venues.For)
	orch.ScheduleInterval = cfg.Orchestrator.ScheduleInterval()
	orch.ErrorBackoff = cfg.Orchestrator.ErrorBackoff()
	orch.ConsensusThreshold = formatRatio(cfg.Orchestrator.ConsensusThreshold)
	orch.MinConfidence = formatRatio(cfg.Orchestrator.MinConfidenceForTrade)
	orch.MaxPositionPct = formatRatio(cfg.Orchestrator.MaxPositionPct)
	orch.Broadcast = broadcaster
	return orch
}

func formatRatio(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func connect(cfg *config.DatabaseConfig) (*database.Instance, error) {
	details, err := cfg.ConnectionDetails()
	if err != nil {
		return nil, err
	}
	dbCfg := &database.Config{
		Enabled:           true,
		Driver:            cfg.Driver,
		ConnectionDetails: details,
		PoolSize:          cfg.PoolSize,
		PoolMaxOverflow:   cfg.PoolMaxOverflow,
		PoolRecycleSecs:   cfg.PoolRecycleSecs,
		ConnectTimeout:    cfg.ConnectTimeout,
		StatementTimeout:  cfg.StatementTimeout,
		LockTimeout:       cfg.LockTimeout,
	}

	if err := database.DB.SetConfig(dbCfg); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case database.DBPostgreSQL:
		return postgres.Connect(dbCfg)
	case database.DBSQLite3, database.DBSQLite:
		return sqlite3.Connect(dbCfg.Database())
	default:
		return nil, fmt.Errorf("councild: unsupported database driver %q", cfg.Driver)
	}
}

func migrate(db *sql.DB, cfg *config.DatabaseConfig) error {
	dir := cfg.MigrationsDir
	if dir == "" {
		dir = "database/migrations"
	}
	return goose.Run("up", db, repository.GetSQLDialect(), dir, "")
}

func newRouter(conn *database.Instance, orch *orchestrator.Orchestrator, broadcaster *orchestrator.WebsocketBroadcaster) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthzHandler(conn)).Methods(http.MethodGet)
	r.HandleFunc("/councils/{id:[0-9]+}/status", statusHandler(orch)).Methods(http.MethodGet)
	r.Handle("/ws", broadcaster)
	return r
}

func healthzHandler(conn *database.Instance) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := conn.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func statusHandler(orch *orchestrator.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		id, err := strconv.ParseInt(vars["id"], 10, 64)
		if err != nil {
			http.Error(w, "invalid council id", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"council_id": id,
			"state":      orch.State(id),
		})
	}
}
