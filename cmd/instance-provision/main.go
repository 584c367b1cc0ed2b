// Command instance-provision launches exactly one compute instance
// against a rotating set of availability domains, retrying through
// transient cloud-API failures (spec §6.2).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/threatflux/libgo/internal/atomicfile"
	"github.com/threatflux/libgo/internal/config"
	oerrors "github.com/threatflux/libgo/internal/errors"
	"github.com/threatflux/libgo/internal/metrics"
	"github.com/threatflux/libgo/internal/ociclient"
	"github.com/threatflux/libgo/internal/provision"
	"github.com/threatflux/libgo/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exitCode := make(chan int, 1)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		cancel()
		switch sig {
		case syscall.SIGTERM:
			exitCode <- 143
		default:
			exitCode <- 130
		}
	}()

	cmd := newProvisionCmd()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return oerrors.ExitCode(err)
		}
		return 0
	case code := <-exitCode:
		return code
	}
}

type provisionFlags struct {
	spec          string
	profile       string
	configFile    string
	toolkitConfig string
	output        string
	timeout       int
	dryRun        bool
	quiet         bool
	verbose       bool
}

func newProvisionCmd() *cobra.Command {
	flags := &provisionFlags{}

	cmd := &cobra.Command{
		Use:           "instance-provision",
		Short:         "Launch a compute instance across a rotating set of availability domains",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.spec, "spec", "s", "", "launch spec template file (required)")
	cmd.Flags().StringVarP(&flags.profile, "profile", "p", envOr("OCI_PROFILE", "DEFAULT"), "OCI CLI profile")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", envOr("OCI_CONFIG_FILE", defaultConfigPath()), "OCI CLI config file")
	cmd.Flags().StringVar(&flags.toolkitConfig, "toolkit-config", os.Getenv("OCI_TOOLKIT_CONFIG"), "toolkit YAML config file (distinct from --config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "instance JSON output file (defaults to stdout)")
	cmd.Flags().IntVarP(&flags.timeout, "timeout", "t", 0, "per-call read timeout in seconds")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "render specs and log planned commands without launching")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress info-level logging")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug-level logging")

	return cmd
}

func runProvision(ctx context.Context, flags *provisionFlags) error {
	if flags.spec == "" {
		return fmt.Errorf("%w: --spec", oerrors.ErrMissingFlag)
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

	client := ociclient.New(cfg.OCIClient.CLIPath)
	timeout := time.Duration(flags.timeout) * time.Second

	engineCfg := provision.Config{
		MaxCycles:           cfg.Provisioning.MaxCycles,
		MaxErrorCyclesPerAD: cfg.Provisioning.MaxErrorCyclesPerAD,
		MaxBackoffAttempts:  cfg.Provisioning.MaxBackoffAttempts,
		BaseBackoff:         cfg.Provisioning.BaseBackoff,
		MaxBackoff:          cfg.Provisioning.MaxBackoff,
		DecorrelatedJitter:  cfg.Provisioning.DecorrelatedJitter,
		InterADSleepMin:     cfg.Provisioning.InterADSleepMin,
		InterADSleepMax:     cfg.Provisioning.InterADSleepMax,
		LockDirCandidates:   cfg.Provisioning.LockDirCandidates,
	}

	go func() {
		<-ctx.Done()
		sweepLockDirs(cfg.Provisioning.LockDirCandidates, log)
	}()

	engine := provision.New(client, engineCfg, log, metrics.New("noop", log))
	engine.Timeout = timeout

	ads, err := discoverADs(cfg.OCIClient.CLIPath, flags.configFile, flags.profile, timeout)
	if err != nil {
		return fmt.Errorf("determining availability domains: %w", err)
	}

	var out io.Writer = os.Stdout
	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("creating output file %s: %w", flags.output, err)
		}
		defer f.Close()
		out = f
	}

	log.Info("starting provisioning", logger.String("profile", flags.profile), logger.Bool("dry-run", flags.dryRun))

	err = engine.Provision(ctx, flags.spec, ads, flags.profile, func(instance []byte) error {
		_, writeErr := out.Write(instance)
		return writeErr
	}, flags.dryRun)

	if err != nil {
		log.Error("provisioning failed", logger.Error(err))
		return err
	}

	log.Info("provisioning complete")
	return nil
}

// discoverADs lists the region's availability domains via the OCI CLI,
// numbering them 1..N in the order returned.
func discoverADs(cliPath, configPath, profile string, timeout time.Duration) ([]int, error) {
	client := ociclient.New(cliPath)
	tenancyOCID, err := ociclient.ReadTenancyOCID(configPath, profile)
	if err != nil {
		return nil, err
	}

	args := append([]string{"iam", "availability-domain", "list", "--compartment-id", tenancyOCID},
		ociclient.BuildArrayQuery("name")...)

	result, err := client.Invoke(context.Background(), profile, args, timeout)
	if err != nil {
		return nil, err
	}

	list, _ := result.([]interface{})
	ads := make([]int, 0, len(list))
	for i := range list {
		ads = append(ads, i+1)
	}
	if len(ads) == 0 {
		ads = []int{1}
	}
	return ads, nil
}

// sweepLockDirs runs atomicfile.CleanupStray over every expanded lock
// directory candidate, discarding errors for candidates that were never
// created (a missing directory just means that candidate was never used).
func sweepLockDirs(candidates []string, log logger.Logger) {
	for _, candidate := range candidates {
		dir := os.ExpandEnv(candidate)
		if err := atomicfile.CleanupStray(dir); err != nil {
			log.Warn("sweeping stray lock state", logger.String("dir", dir), logger.Error(err))
		}
	}
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

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
