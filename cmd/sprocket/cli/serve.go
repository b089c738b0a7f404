package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sprocketdb/sprocket/internal/config"
	"github.com/sprocketdb/sprocket/internal/executor"
	"github.com/sprocketdb/sprocket/internal/server"
	"github.com/sprocketdb/sprocket/internal/service"
	"github.com/sprocketdb/sprocket/internal/telemetry"
)

const banner = `
 ___ ___ ___  ___   ___ _  _____ _____
/ __| _ \ _ \/ _ \ / __| |/ / __|_   _|
\__ \  _/   / (_) | (__| ' <| _|  | |
|___/_| |_|_\\___/ \___|_|\_\___| |_|
`

func newServeCmd() *cobra.Command {
	var (
		port   int
		host   string
		dev    bool
		daemon bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sprocket API server",
		Long:  "Start the HTTP server that exposes procedure lifecycle operations for all registered targets.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if daemon {
				return startDaemon()
			}
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Run the server in the background")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

// startDaemon re-executes the serve command detached from the terminal,
// logging to the data directory, and records the child PID.
func startDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := make([]string, 0, len(os.Args)-1)
	for _, arg := range os.Args[1:] {
		if arg == "--daemon" {
			continue
		}
		args = append(args, arg)
	}

	if err := os.MkdirAll(resolveDataDir(), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setSysProcAttr(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start background server: %w", err)
	}

	if err := writePID(child.Process.Pid); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}

	fmt.Printf("Server started in background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  Logs: %s\n", logFilePath())
	fmt.Println("  Stop with: sprocket stop")
	return nil
}

func runServe(host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logLevel := slog.LevelInfo
	if dev {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx := context.Background()

	// 1. Config store (SQLite)
	store, err := config.NewStore(resolveDataDir())
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}
	defer store.Close()
	logger.Info("config store initialized", "path", resolveDataDir())

	// 2. Connect all active targets
	registry := executor.NewRegistry()
	targets, err := store.ListTargets(ctx)
	if err != nil {
		logger.Warn("failed to load targets from config", "error", err)
	}
	for _, tgt := range targets {
		if !tgt.IsActive {
			continue
		}
		if err := registry.Connect(tgt.Name, executorConfig(&tgt), tgt.Language); err != nil {
			logger.Error("failed to connect target", "target", tgt.Name, "error", err)
		} else {
			logger.Info("connected target", "target", tgt.Name, "language", tgt.Language)
		}
	}

	// 3. Auth service with a persisted signing secret
	jwtSecret := viper.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		jwtSecret, err = service.LoadOrInitSecret(ctx, store)
		if err != nil {
			return fmt.Errorf("init jwt secret: %w", err)
		}
	}
	authSvc := service.NewAuthService(jwtSecret)

	// 4. Telemetry heartbeat
	tracker := telemetry.New(ctx, store, func() telemetry.Properties {
		tgts, _ := store.ListTargets(context.Background())
		langs := make(map[string]bool)
		for _, t := range tgts {
			langs[t.Language] = true
		}
		languages := make([]string, 0, len(langs))
		for l := range langs {
			languages = append(languages, l)
		}
		return telemetry.Properties{
			Version:   appVersion,
			GoVersion: runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			Targets:   len(tgts),
			Languages: languages,
			Features:  []string{"rest", "mcp"},
		}
	})
	if tracker != nil {
		telemetry.PrintNotice()
		tracker.Start()
		defer tracker.Shutdown()
	}

	// 5. Build and start the HTTP server
	srvCfg := server.DefaultConfig()
	srvCfg.Host = host
	srvCfg.Port = port

	srv := server.New(srvCfg, registry, store, authSvc, logger)

	fmt.Printf("→ sprocket %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ API:     http://%s:%d/api/v1\n", host, port)
	fmt.Printf("→ Health:  http://%s:%d/healthz\n", host, port)
	fmt.Printf("→ Connected targets: %d\n", len(registry.ListTargets()))
	fmt.Println()

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("failed to write pid file", "error", err)
	}
	defer removePID()

	return srv.ListenAndServe()
}
