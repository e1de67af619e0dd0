package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stockbridge/freightgate/internal/server"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "freightgate",
	Short:   "Freightgate - Shopify freight-rate bridge for wholesale distributors",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rate server",
	RunE:  runServe,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one catalog-to-mapping sync pass",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().String("shop", "", "shop identifier to sync mappings for")
	syncCmd.Flags().String("skus-file", "", "file with one storefront SKU per line")
	syncCmd.MarkFlagRequired("shop")
	syncCmd.MarkFlagRequired("skus-file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	logger.Info("Starting Freightgate",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("provider", cfg.Provider),
	)

	// Start HTTP server
	srv := server.New(server.Config{Port: cfg.Port}, deps.Service, deps.Settings, deps.Credentials, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	shopID, _ := cmd.Flags().GetString("shop")
	skusFile, _ := cmd.Flags().GetString("skus-file")

	report, err := runSyncPass(ctx, cfg, logger, shopID, skusFile)
	if err != nil {
		return err
	}

	logger.Info("Sync pass complete",
		zap.String("shop_id", shopID),
		zap.Int("requested", report.Requested),
		zap.Int("mapped", report.Mapped),
		zap.Int("missing", len(report.Missing)),
	)
	for _, sku := range report.Missing {
		fmt.Fprintf(cmd.OutOrStdout(), "unmapped: %s\n", sku)
	}
	return nil
}
