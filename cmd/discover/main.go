// Command discover captures a complete inventory of an OCI tenancy into
// a single JSON snapshot file (spec §6.1).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/threatflux/libgo/internal/atomicfile"
	"github.com/threatflux/libgo/internal/config"
	"github.com/threatflux/libgo/internal/discovery"
	oerrors "github.com/threatflux/libgo/internal/errors"
	"github.com/threatflux/libgo/internal/metrics"
	"github.com/threatflux/libgo/internal/ociclient"
	"github.com/threatflux/libgo/internal/snapshot"
	"github.com/threatflux/libgo/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cmd := newDiscoverCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return oerrors.ExitCode(err)
	}
	return 0
}

type discoverFlags struct {
	profile       string
	configFile    string
	toolkitConfig string
	output        string
	timeout       int
	quiet         bool
	verbose       bool
}

func newDiscoverCmd() *cobra.Command {
	flags := &discoverFlags{}

	cmd := &cobra.Command{
		Use:           "discover",
		Short:         "Capture a complete OCI tenancy inventory into a JSON snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.profile, "profile", "p", envOr("OCI_PROFILE", "DEFAULT"), "OCI CLI profile")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", envOr("OCI_CONFIG_FILE", defaultConfigPath()), "OCI CLI config file")
	cmd.Flags().StringVar(&flags.toolkitConfig, "toolkit-config", os.Getenv("OCI_TOOLKIT_CONFIG"), "toolkit YAML config file (distinct from --config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", os.Getenv("OCI_SNAPSHOT_OUTPUT"), "snapshot output file")
	cmd.Flags().IntVarP(&flags.timeout, "timeout", "t", 0, "per-call read timeout in seconds")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress info-level logging")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug-level logging")

	return cmd
}

func runDiscover(ctx context.Context, flags *discoverFlags) error {
	if flags.profile == "" {
		return fmt.Errorf("%w: --profile", oerrors.ErrMissingFlag)
	}

	cfg := config.Default()
	if err := config.NewYAMLLoader(flags.toolkitConfig).Load(cfg); err != nil {
		return fmt.Errorf("loading toolkit config: %w", err)
	}
	cfg.Logging.Level = levelFor(flags.quiet, flags.verbose)
	cfg.OCIClient.ConfigFilePath = flags.configFile

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.NewZapLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer log.Sync()

	outputPath := flags.output
	if outputPath == "" {
		outputPath = filepath.Join(cfg.Discovery.OutputDir, defaultSnapshotName(flags.profile))
	}
	outputDir := filepath.Dir(outputPath)

	if err := atomicfile.CleanupStray(outputDir); err != nil {
		log.Warn("sweeping stray snapshot tempfiles at startup", logger.Error(err))
	}
	go func() {
		<-ctx.Done()
		if err := atomicfile.CleanupStray(outputDir); err != nil {
			log.Warn("sweeping stray snapshot tempfiles after signal", logger.Error(err))
		}
	}()

	client := ociclient.New(cfg.OCIClient.CLIPath)
	store := snapshot.New(outputPath)
	store.PollInterval = cfg.Discovery.LockPollInterval
	store.MaxAttempts = cfg.Discovery.LockMaxAttempts
	timeout := time.Duration(flags.timeout) * time.Second

	orchestrator := discovery.New(client, store, flags.profile, flags.configFile, timeout, cfg.Discovery.IgnoredTagNamespaces, log, metrics.New("noop", log))

	log.Info("starting discovery", logger.String("profile", flags.profile), logger.String("output", outputPath))

	if err := orchestrator.Run(ctx); err != nil {
		log.Error("discovery finished with errors", logger.Error(err))
		return fmt.Errorf("%w: %v", oerrors.ErrSectionFailed, err)
	}

	log.Info("discovery complete", logger.String("output", outputPath))
	return nil
}

func levelFor(quiet, verbose bool) string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	default:
		return "info"
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".oci/config"
	}
	return filepath.Join(home, ".oci", "config")
}

func defaultSnapshotName(profile string) string {
	return fmt.Sprintf("snapshot-%s-%s.json", strings.ToLower(profile), time.Now().UTC().Format("20060102150405"))
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
