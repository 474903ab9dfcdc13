package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/mindjournal/internal/api"
	"github.com/wonny/mindjournal/internal/api/handlers"
	"github.com/wonny/mindjournal/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the dashboard REST API and websocket server.

Endpoints:
  GET    /health                           - Health check
  POST   /api/session                      - Issue a session (issuer key)
  DELETE /api/session                      - Logout
  GET    /api/heatmap/{year}               - Yearly heatmap with streaks
  GET    /api/stats/monthly/{year}/{month} - Monthly statistics
  GET    /api/stats/daily/{year}           - Daily summaries
  GET    /api/stats/hours/{year}           - Hour-of-day pattern
  POST   /api/journal                      - Add an entry
  DELETE /api/journal/{id}                 - Delete an entry
  GET    /ws                               - Realtime updates

Example:
  go run ./cmd/mindjournal api
  go run ./cmd/mindjournal api --port 9090 --scheduler=false`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", true, "run the scheduled jobs in-process so streak alerts reach websocket clients")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Mind Journal API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Wire source, cache, hub and service
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Sessions and handlers
	sessions := a.sessions()
	h := api.Handlers{
		Dashboard: handlers.NewDashboardHandler(a.service, log),
		Journal:   handlers.NewJournalHandler(a.service, log),
		Session:   handlers.NewSessionHandler(sessions, cfg.Session.IssuerKey, log),
		WS:        handlers.NewWSHandler(a.hub),
	}
	limiter := api.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// 5. Create router and server
	router := api.NewRouter(h, sessions, limiter, log)
	server := api.New(cfg, log, router)

	// 6. Optional in-process scheduler
	if apiScheduler {
		sched, err := a.scheduler()
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 7. Serve until interrupted
	// websocket connections are hijacked and not drained by Shutdown
	server.OnShutdown(a.hub.Close)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s (source: %s)\n", cfg.Port, cfg.Journal.Source)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
