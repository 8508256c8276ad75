package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/innervoice/internal/api"
	"github.com/kalambet/innervoice/internal/config"
	"github.com/kalambet/innervoice/internal/profile"
	"github.com/kalambet/innervoice/internal/proxy"
	"github.com/kalambet/innervoice/internal/reflection"
	"github.com/kalambet/innervoice/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the innervoice server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running innervoice server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show innervoice system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func runtimeDir(cfg config.Config) string {
	if cfg.Storage.DataDir != "" {
		return cfg.Storage.DataDir
	}
	return config.DefaultDataDir()
}

func pidFilePath(cfg config.Config) string {
	return filepath.Join(runtimeDir(cfg), "innervoice.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// newStore selects the profile store implementation: SQLite when a data
// directory is configured, otherwise in-memory for the process lifetime.
func newStore(cfg config.Config) (profile.Store, func() error, error) {
	if cfg.Storage.DataDir == "" {
		return profile.NewMemoryStore(cfg.History.MaxEntries), func() error { return nil }, nil
	}
	st, err := storage.Open(cfg.Storage.DataDir, cfg.History.MaxEntries)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	return st, st.Close, nil
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "innervoice version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/api/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("innervoice is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("innervoice is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Build the reflector. A nil upstream client selects fallback-only
	// mode; the mode was resolved at config load.
	var upstream reflection.Completer
	if cfg.Upstream.Mode == config.UpstreamConfigured {
		upstream = proxy.NewClientWithBaseURL(cfg.Upstream.APIKey, cfg.Upstream.Model, cfg.Upstream.BaseURL)
		slog.Info("upstream configured", "model", cfg.Upstream.Model)
	} else {
		slog.Info("upstream disabled, answering from fallback tables" + config.APIKeyHint())
	}
	refl := reflection.New(store, upstream)

	handler := api.NewReflectionHandler(refl, store)
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	mcpSrv := api.NewMCPServer(api.MCPDeps{Reflector: refl, Store: store})
	mcpAddr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.MCPPort)
	sseSrv := server.NewSSEServer(mcpSrv)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "innervoice listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("MCP server listening", "addr", mcpAddr)
		if err := sseSrv.Start(mcpAddr); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sseSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("mcp shutdown", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("innervoice is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop innervoice (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to innervoice (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/api/health")
	running := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Upstream", "%s", cfg.Upstream.Mode)
	if cfg.Upstream.Mode == config.UpstreamConfigured {
		printStatus("Model", "%s", cfg.Upstream.Model)
	} else {
		printStatus("Model", "(fallback tables)")
	}

	if running {
		if profilesResp, err := client.Get(serverURL + "/api/ai-reflection/debug/profiles"); err == nil {
			var body struct {
				Count int `json:"count"`
			}
			if json.NewDecoder(profilesResp.Body).Decode(&body) == nil {
				printStatus("Profiles", "%d", body.Count)
			}
			profilesResp.Body.Close()
		}
	}

	if cfg.Storage.DataDir != "" {
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
	} else {
		printStatus("Data dir", "(in-memory)")
	}
	return nil
}
