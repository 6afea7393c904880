package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/facegate/internal/capture"
	"github.com/kozaktomas/facegate/internal/capture/mariadb"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/enrollment"
	"github.com/kozaktomas/facegate/internal/recognition"
	"github.com/kozaktomas/facegate/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Facegate web server.
The server exposes enrollment and recognition endpoints for kiosk
devices plus read APIs for the enrolled population and capture log.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (string, int) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return host, port
}

// openCaptureStore opens the MariaDB capture log if configured.
// Captures are optional; without a backend recognition still works,
// events are just not recorded.
func openCaptureStore(cfg *config.Config) (capture.Store, func()) {
	if cfg.Captures.DatabaseURL == "" {
		return nil, func() {}
	}

	store, err := mariadb.NewStore(cfg.Captures.DatabaseURL)
	if err != nil {
		fmt.Printf("Warning: capture log disabled: %v\n", err)
		return nil, func() {}
	}
	fmt.Println("Capture log enabled (MariaDB)")
	return store, func() { store.Close() }
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	backend, closeBackend, err := openSnapshotBackend(cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	// Loading happens before any reader or writer is admitted; this is
	// the only phase with exclusive access to the roster.
	r := loadRoster(ctx, backend)

	captures, closeCaptures := openCaptureStore(cfg)
	defer closeCaptures()

	recognizer := recognition.New(r, cfg.Matching.Threshold, captures)
	enroller := enrollment.New(r, newEmbedder(cfg))

	host, port := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, host, port, r, recognizer, enroller, captures)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Recognition threshold: %.2f\n", cfg.Matching.Threshold)
	fmt.Printf("Starting Facegate on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
