// Command squadwatch keeps a live local view of a squad orchestration
// backend and serves it to browsers and the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Shinox-lab/dashboard/internal/common/config"
	"github.com/Shinox-lab/dashboard/internal/common/httpmw"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	"github.com/Shinox-lab/dashboard/internal/common/tracing"
	"github.com/Shinox-lab/dashboard/internal/events"
	"github.com/Shinox-lab/dashboard/internal/persistence"
	"github.com/Shinox-lab/dashboard/internal/state"
	"github.com/Shinox-lab/dashboard/internal/tui"

	// Mesh synchronization
	"github.com/Shinox-lab/dashboard/internal/mesh/client"
	"github.com/Shinox-lab/dashboard/internal/mesh/dispatch"
	"github.com/Shinox-lab/dashboard/internal/mesh/poller"
	"github.com/Shinox-lab/dashboard/internal/mesh/subscription"
	"github.com/Shinox-lab/dashboard/internal/mesh/wsclient"

	// Dashboard
	dashboardhandlers "github.com/Shinox-lab/dashboard/internal/dashboard/handlers"
	dashboardservice "github.com/Shinox-lab/dashboard/internal/dashboard/service"

	// Settings
	settingshandlers "github.com/Shinox-lab/dashboard/internal/settings/handlers"
	settingsservice "github.com/Shinox-lab/dashboard/internal/settings/service"
	settingsstore "github.com/Shinox-lab/dashboard/internal/settings/store"

	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

const serverName = "squadwatch"

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger. The terminal UI owns the screen, so console
	// output is moved to a file while it runs.
	outputPath := cfg.Logging.OutputPath
	if cfg.UI.TUI && (outputPath == "" || outputPath == "stdout" || outputPath == "stderr") {
		outputPath = "squadwatch.log"
	}
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: outputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("squadwatch exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("Starting squadwatch...",
		zap.String("api_url", cfg.Backend.APIURL),
		zap.String("ws_url", cfg.Backend.WSURL))

	// 3. Create context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Tracing (no-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set)
	if enabled, err := tracing.Init(ctx, tracing.DefaultServiceName); err != nil {
		log.Warn("Failed to initialize tracing", zap.Error(err))
	} else if enabled {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracing.Shutdown(shutdownCtx)
		}()
	}

	// 5. Event bus (in-memory, or NATS if configured)
	provided, busCleanup, err := events.Provide(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = busCleanup() }()
	eventBus := provided.Bus

	// 6. Settings persistence
	pool, dbCleanup, err := persistence.Provide(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbCleanup(); err != nil {
			log.Error("database cleanup error", zap.Error(err))
		}
	}()
	settingsRepo, repoCleanup, err := settingsstore.Provide(pool)
	if err != nil {
		return err
	}
	defer func() { _ = repoCleanup() }()
	settingsSvc := settingsservice.NewService(settingsRepo, eventBus, log)

	// 7. State store and backend connections
	store := state.NewStore(eventBus, log)

	conn := wsclient.New(wsclient.Options{
		URL:                  cfg.Backend.WSURL,
		ReconnectInterval:    cfg.Sync.ReconnectIntervalDuration(),
		MaxReconnectAttempts: cfg.Sync.MaxReconnectAttempts,
		HeartbeatInterval:    cfg.Sync.HeartbeatIntervalDuration(),
		FrameBuffer:          cfg.Sync.FrameBuffer,
		Dialer:               wsclient.NewGorillaDialer(cfg.Backend.RequestTimeoutDuration()),
	}, log)
	subs := subscription.NewManager(conn, cfg.Sync.UnsubscribeOnSwitch, log)
	conn.OnConnectionChange(store.SetWebSocketConnected)
	conn.OnConnectionChange(subs.HandleConnectionChange)

	dispatcher := dispatch.NewDispatcher(store, eventBus, log)
	apiClient := client.NewClient(cfg.Backend.APIURL, cfg.Backend.RequestTimeoutDuration(), log)

	// 8. Dashboard service and poller
	dashboardSvc := dashboardservice.NewService(apiClient, store, subs, dashboardservice.Options{
		MessageLimit:      cfg.Sync.MessageHistoryLimit,
		SendOverWebSocket: cfg.Sync.SendOverWebSocket,
	}, log)

	squadPoller := poller.New(apiClient, store, poller.Options{
		SquadInterval:  cfg.Poller.SquadIntervalDuration(),
		HealthInterval: cfg.Poller.HealthIntervalDuration(),
		StatusFilter:   cfg.Poller.StatusFilter,
	}, log)
	squadPoller.OnSnapshot(func(squads []v1.Squad) {
		dashboardSvc.EnsureSelection(ctx, squads)
	})

	settingsSub, err := watchSettings(ctx, log, eventBus, settingsSvc, squadPoller)
	if err != nil {
		return fmt.Errorf("subscribe to settings updates: %w", err)
	}
	defer func() { _ = settingsSub.Unsubscribe() }()

	var bridge *tui.Bridge
	if cfg.UI.TUI {
		bridge, err = tui.NewBridge(eventBus)
		if err != nil {
			return fmt.Errorf("start terminal bridge: %w", err)
		}
		defer bridge.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(dispatcher.Run(gctx, conn.Frames()))
	})
	g.Go(func() error {
		return squadPoller.Run(gctx)
	})

	// 9. Local gateway
	if cfg.Server.Enabled {
		gateway, gatewayCleanup := provideGateway(gctx, log, eventBus, store)
		defer gatewayCleanup()

		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Recovery())
		router.Use(httpmw.RequestID())
		router.Use(httpmw.OtelTracing(serverName))
		router.Use(httpmw.RequestLogger(log, serverName))
		router.Use(corsMiddleware())

		dashboardhandlers.RegisterRoutes(router, dashboardSvc, log)
		settingshandlers.RegisterRoutes(router, settingsSvc, log)
		gateway.SetupRoutes(router)

		server := &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
			WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		}

		g.Go(func() error {
			log.Info("Gateway listening",
				zap.String("addr", server.Addr),
				zap.String("websocket", "/ws"),
				zap.String("health", "/health"),
				zap.String("http", "/api/v1"))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("gateway server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", zap.Error(err))
			}
			return nil
		})
	}

	// 10. Open the backend stream. A failed first dial schedules retries.
	if err := conn.Connect(gctx); err != nil {
		log.Warn("initial websocket connection failed", zap.Error(err))
	}

	// 11. Terminal UI; quitting it stops the process.
	if bridge != nil {
		g.Go(func() error {
			defer stop()
			return tui.Run(gctx, dashboardSvc, store, bridge)
		})
	}

	<-gctx.Done()
	log.Info("Shutting down squadwatch...")
	conn.Disconnect()

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("squadwatch stopped")
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
