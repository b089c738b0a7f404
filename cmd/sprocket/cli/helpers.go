package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sprocketdb/sprocket/internal/config"
	"github.com/sprocketdb/sprocket/internal/definition"
	"github.com/sprocketdb/sprocket/internal/executor"
	"github.com/sprocketdb/sprocket/internal/model"
	"github.com/sprocketdb/sprocket/internal/procedure"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// SPROCKET_DATA_DIR env var, or ~/.sprocket as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("SPROCKET_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.sprocket"
}

// openConfigStore opens the SQLite config store, defaulting to ~/.sprocket
// if no data dir was specified.
func openConfigStore() (*config.Store, error) {
	return config.NewStore(resolveDataDir())
}

// executorConfig maps a stored target registration to connection parameters.
func executorConfig(tgt *model.Target) executor.Config {
	return executor.Config{
		DSN:             tgt.DSN,
		SchemaName:      tgt.Schema,
		MaxOpenConns:    tgt.Pool.MaxOpenConns,
		MaxIdleConns:    tgt.Pool.MaxIdleConns,
		ConnMaxLifetime: tgt.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: tgt.Pool.ConnMaxIdleTime,
	}
}

// managerFor looks up a target by name, connects to it, and returns a
// lifecycle manager plus the target registration. The caller owns the client
// and must Close it.
func managerFor(ctx context.Context, store *config.Store, targetName string) (*procedure.Manager, *executor.Client, *model.Target, error) {
	tgt, err := store.GetTargetByName(ctx, targetName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("look up target %q: %w", targetName, err)
	}

	client, err := executor.Connect(executorConfig(tgt))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect target %q: %w", targetName, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return procedure.NewManager(client, definition.ScriptBuilder{}, logger), client, tgt, nil
}

// parseKeyValuePairs converts repeated "name=value" flags into a map.
func parseKeyValuePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid pair %q, expected name=value", pair)
		}
		out[key] = value
	}
	return out, nil
}

// coerceArgValue turns a CLI string argument into the value bound to the
// procedure parameter. Integers, floats, and booleans are recognized;
// everything else stays a string.
func coerceArgValue(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "sprocket.pid")
}

func writePID(pid int) error {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

func logFilePath() string {
	return filepath.Join(resolveDataDir(), "sprocket.log")
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
