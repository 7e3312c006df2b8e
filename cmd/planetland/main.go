package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/planetland/backend/config"
	"github.com/planetland/backend/server"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "planetland: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "planetland",
		Short:        "Planet Land property image backend",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "YAML config file (optional)")
	cmd.AddCommand(
		newServeCmd(),
		newBootstrapCmd(),
		newImportCmd(),
		newExportCmd(),
	)
	return cmd
}

// withApp loads config, wires the services and runs fn with them.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				gin.SetMode(gin.ReleaseMode)

				srv := server.New(a.store, a.properties,
					server.WithAddr(a.cfg.Server.Addr()),
					server.WithCORSOrigins(a.cfg.Server.CORSOrigins...),
					server.WithStatic(a.staticRoute()),
					server.WithMaxBodySize(a.cfg.Images.MaxFileSize()*int64(a.cfg.Images.MaxBulkFiles)+1<<20),
					server.WithShutdownTimeout(a.cfg.Server.ShutdownTimeout()),
					server.WithLogWriter(a.logWriter),
					server.WithLogger(a.logger),
				)
				return srv.Serve(ctx)
			})
		},
	}
}

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the uploads and data directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.store.Bootstrap(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "directories ready")
				return nil
			})
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a property_images JSON document into the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()

				result, err := a.store.Import(ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d images, skipped %d duplicates\n", result.Imported, result.Skipped)
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var propertyID string
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the image collection as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				collection, err := a.store.Export(ctx, propertyID)
				if err != nil {
					return err
				}

				data, err := json.MarshalIndent(collection, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode export: %w", err)
				}
				data = append(data, '\n')

				if out == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&propertyID, "property", "", "Only export images of this property")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
