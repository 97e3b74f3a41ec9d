// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/fakearr/internal/api"
	"github.com/autobrr/fakearr/internal/buildinfo"
	"github.com/autobrr/fakearr/internal/config"
	"github.com/autobrr/fakearr/internal/domain"
	"github.com/autobrr/fakearr/internal/metrics"
	"github.com/autobrr/fakearr/internal/pipeline"
	"github.com/autobrr/fakearr/internal/services/arr"
	"github.com/autobrr/fakearr/internal/services/prowlarr"
	"github.com/autobrr/fakearr/internal/torrent"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "fakearr",
		Short: "Serve fake torrent and NZB files for download client testing",
		Long: `fakearr - Generates valid .torrent and .nzb documents on demand,
carrying either a fixed infohash or the infohash of a real release
looked up via Radarr/Sonarr and Prowlarr.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand(buildinfo.Version))
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		logPath   string
		pprofFlag bool
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/fakearr/ or %APPDATA%\\fakearr\\). For backward compatibility, can also be a direct path to a .toml file")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")
	command.Flags().BoolVar(&pprofFlag, "pprof", false, "enable pprof server on :6060")

	command.Run = func(cmd *cobra.Command, args []string) {
		app := NewApplication(configDir, logPath, pprofFlag)
		app.runServer()
	}

	return command
}

func RunVersionCommand(version string) *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of fakearr",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	return command
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the server.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/fakearr/config.toml
- Windows: %APPDATA%\fakearr\config.toml

You can specify either a directory path or a direct file path:
- Directory: fakearr generate-config --config-dir /path/to/config/
- File: fakearr generate-config --config-dir /path/to/myconfig.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if configDir != "" {
				if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
					configPath = configDir
				} else if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
					configPath = configDir
				} else {
					configPath = filepath.Join(configDir, "config.toml")
				}
			} else {
				defaultDir := config.GetDefaultConfigDir()
				configPath = filepath.Join(defaultDir, "config.toml")
			}

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

type Application struct {
	configDir string
	logPath   string
	pprofFlag bool
}

func NewApplication(configDir, logPath string, pprofFlag bool) *Application {
	return &Application{
		configDir: configDir,
		logPath:   logPath,
		pprofFlag: pprofFlag,
	}
}

func (app *Application) runServer() {
	// Initialize configuration
	cfg, err := config.New(app.configDir, buildinfo.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	// Override with CLI flags if provided
	if app.logPath != "" {
		os.Setenv("FAKEARR__LOG_PATH", app.logPath)
		cfg.Config.LogPath = app.logPath
	}

	if app.pprofFlag {
		cfg.Config.PprofEnabled = true
	}

	cfg.ApplyLogConfig()

	// Config file edits reapply log settings live. The generator is built
	// once at startup, so a mode change only takes effect after a restart.
	startupMode := cfg.Config.Mode
	cfg.RegisterReloadListener(func(newConf *domain.Config) {
		if newConf.Mode != startupMode {
			log.Warn().Str("mode", newConf.Mode).Msg("Mode changed in config file, restart to apply")
		}
	})

	log.Info().
		Str("version", buildinfo.Version).
		Str("configDir", cfg.GetConfigDir()).
		Msg("Starting fakearr")

	if err := cfg.Config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	generator, err := buildGenerator(cfg.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build torrent generator")
	}

	// Start server in goroutine
	httpServer := api.NewServer(&api.Dependencies{
		Config:    cfg,
		Version:   buildinfo.Version,
		Generator: generator,
		Metrics:   newMetricsManager(cfg.Config),
	})

	errorChannel := make(chan error)
	serverReady := make(chan struct{}, 1)
	go func() {
		if err := httpServer.ListenAndServeReady(serverReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChannel <- err
		}
	}()

	select {
	case <-serverReady:
	case err := <-errorChannel:
		log.Fatal().Err(err).Msg("failed to start HTTP server")
	}

	if cfg.Config.MetricsEnabled {
		// Start metrics server on separate port
		go func() {
			metricsServer := metrics.NewServer(
				newMetricsManager(cfg.Config),
				cfg.Config.MetricsHost,
				cfg.Config.MetricsPort,
			)

			errorChannel <- metricsServer.ListenAndServe()
		}()
	}

	// Start profiling server if enabled
	if cfg.Config.PprofEnabled {
		go func() {
			log.Info().Msg("Starting pprof server on :6060")
			log.Info().Msg("Access profiling at: http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe(":6060", nil); err != nil {
				log.Error().Err(err).Msg("Profiling server failed")
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("got signal %v, shutting down server", sig.String())
	case err := <-errorChannel:
		log.Error().Err(err).Msg("got unexpected error from server")
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("got error during graceful http shutdown")
		os.Exit(1)
	}

	os.Exit(0)
}

var metricsManager *metrics.Manager

func newMetricsManager(conf *domain.Config) *metrics.Manager {
	if !conf.MetricsEnabled {
		return nil
	}
	if metricsManager == nil {
		metricsManager = metrics.NewManager()
	}
	return metricsManager
}

func buildGenerator(conf *domain.Config) (pipeline.Generator, error) {
	builder := torrent.NewBuilder(torrent.Options{
		Announce: conf.AnnounceURL,
	})

	switch domain.Mode(conf.Mode) {
	case domain.ModeFixed:
		log.Info().Str("infohash", conf.InfoHash).Msg("Using fixed infohash generator")
		return pipeline.NewFixed(builder, conf.InfoHash), nil

	case domain.ModeSearch:
		var radarr, sonarr *arr.Client
		if conf.RadarrURL != "" {
			radarr = arr.NewClient(conf.RadarrURL, conf.RadarrAPIKey, conf.SearchTimeout)
		}
		if conf.SonarrURL != "" {
			sonarr = arr.NewClient(conf.SonarrURL, conf.SonarrAPIKey, conf.SearchTimeout)
		}
		resolver := arr.NewResolver(radarr, sonarr)
		searcher := prowlarr.NewClient(conf.ProwlarrURL, conf.ProwlarrAPIKey, conf.SearchTimeout)

		probeCollaborators(resolver, searcher)

		log.Info().
			Str("prowlarr", conf.ProwlarrURL).
			Str("radarr", conf.RadarrURL).
			Str("sonarr", conf.SonarrURL).
			Float64("threshold", conf.MatchThreshold).
			Msg("Using search generator")

		search := pipeline.NewSearch(builder, resolver, searcher, conf.MatchThreshold, conf.SearchLimit)
		if manager := newMetricsManager(conf); manager != nil {
			search.WithScoreRecorder(manager)
		}
		return search, nil

	default:
		return nil, fmt.Errorf("unknown mode %q", conf.Mode)
	}
}

// probeCollaborators checks the configured upstreams concurrently. Failures
// are logged, not fatal, so the service can start before its collaborators.
func probeCollaborators(resolver *arr.Resolver, searcher *prowlarr.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := resolver.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Metadata resolver health check failed")
		}
		return nil
	})
	g.Go(func() error {
		if err := searcher.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Release searcher health check failed")
		}
		return nil
	})
	g.Wait()
}
