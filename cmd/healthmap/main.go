package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ehr/healthmap/internal/config"
	"github.com/ehr/healthmap/internal/domain/analysis"
	"github.com/ehr/healthmap/internal/domain/clinical"
	"github.com/ehr/healthmap/internal/domain/compliance"
	"github.com/ehr/healthmap/internal/domain/mapping"
	"github.com/ehr/healthmap/internal/platform/codec"
	"github.com/ehr/healthmap/internal/platform/fhir"
	"github.com/ehr/healthmap/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "healthmap",
		Short:         "Healthcare entity to FHIR mapping and clinical analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional env file with configuration")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mapCmd())
	rootCmd.AddCommand(analyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(cfg.Level()).With().Timestamp().Logger()
}

// services is the dependency graph shared by every command. It is built
// once and passed down; nothing here keeps per-call state.
type services struct {
	profiles *fhir.ProfileRegistry
	mapping  *mapping.Service
	clinical *clinical.Engine
	analysis *analysis.Engine
}

func newServices(cfg *config.Config, logger zerolog.Logger) *services {
	profiles := fhir.NewSaudiProfileRegistry()
	mappingSvc := mapping.NewService(profiles, mapping.Options{
		IdentifierSystem:       cfg.IdentifierSystem,
		DefaultConfidentiality: cfg.DefaultConfidentiality,
	}, logger)
	rules := clinical.NewEngine(logger,
		clinical.WithInteractionChecker(clinical.CountInteractionChecker{Threshold: cfg.InteractionThreshold}))

	return &services{
		profiles: profiles,
		mapping:  mappingSvc,
		clinical: rules,
		analysis: analysis.NewEngine(analysis.Config{
			Mapping:     mappingSvc,
			Clinical:    rules,
			Compliance:  compliance.NewAssessor(profiles, logger),
			Concurrency: cfg.BatchConcurrency,
		}, logger),
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the mapping API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

// newServer wires the HTTP surface.
func newServer(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	svc := newServices(cfg, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = codec.Serializer{}

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.BatchBodyLimit))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	// API groups
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	mapping.NewHandler(svc.mapping).RegisterRoutes(apiV1)
	analysis.NewHandler(svc.analysis).RegisterRoutes(apiV1)

	fhirGroup := e.Group("/fhir")
	fhir.NewProfileHandler(svc.profiles).RegisterRoutes(fhirGroup)

	// CDS Hooks
	cds := fhir.NewCDSHooksHandler()
	analysis.RegisterSafetyService(cds, svc.clinical)
	cds.RegisterRoutes(e)

	return e
}

func runServer(cfg *config.Config) error {
	logger := newLogger(os.Stdout, cfg)
	e := newServer(cfg, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map documents and entities from a YAML or JSON file to FHIR",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			inputs, err := readInputs(cmd)
			if err != nil {
				return err
			}
			svc := newServices(cfg, newLogger(os.Stderr, cfg))
			return runMap(cmd.OutOrStdout(), svc.mapping, inputs)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Input file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Map and analyze documents from a YAML or JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			inputs, err := readInputs(cmd)
			if err != nil {
				return err
			}
			svc := newServices(cfg, newLogger(os.Stderr, cfg))
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), svc.analysis, inputs)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Input file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// inputFile is either a single input or a "documents" list of inputs.
type inputFile struct {
	analysis.Input `yaml:",inline"`
	Documents      []analysis.Input `yaml:"documents"`
}

func readInputs(cmd *cobra.Command) ([]analysis.Input, error) {
	path, _ := cmd.Flags().GetString("file")
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	return decodeInputs(r)
}

// decodeInputs reads YAML. JSON input works too since JSON is valid YAML.
func decodeInputs(r io.Reader) ([]analysis.Input, error) {
	var file inputFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("input is empty")
		}
		return nil, fmt.Errorf("decode input: %w", err)
	}
	if len(file.Documents) > 0 {
		return file.Documents, nil
	}
	return []analysis.Input{file.Input}, nil
}

func runMap(w io.Writer, svc *mapping.Service, inputs []analysis.Input) error {
	results := make([]*mapping.Result, 0, len(inputs))
	for i, in := range inputs {
		res, err := svc.Map(in.Document, in.Entities)
		if err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
		results = append(results, res)
	}
	if len(results) == 1 {
		return codec.Encode(w, results[0])
	}
	return codec.Encode(w, results)
}

func runAnalyze(ctx context.Context, w io.Writer, engine *analysis.Engine, inputs []analysis.Input) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(inputs) == 1 {
		report, err := engine.Run(ctx, inputs[0])
		if err != nil {
			return err
		}
		return codec.Encode(w, report)
	}
	items, err := engine.AnalyzeBatch(ctx, inputs)
	if err != nil {
		return err
	}
	return codec.Encode(w, analysis.BatchResponse{Results: items})
}

