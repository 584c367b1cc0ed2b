// Package provision implements the compute-instance launch retry loop:
// per-AD spec rendering, structured error classification, decorrelated
// backoff, and the process-wide exclusive lock (spec §4.5).
package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	oerrors "github.com/threatflux/libgo/internal/errors"
	"github.com/threatflux/libgo/internal/launchspec"
	"github.com/threatflux/libgo/internal/metrics"
	"github.com/threatflux/libgo/internal/ociclient"
	"github.com/threatflux/libgo/pkg/logger"
)

// Config bundles the tunables of §3.4 / §4.5.2 / §4.5.3.
type Config struct {
	MaxCycles           int
	MaxErrorCyclesPerAD int
	MaxBackoffAttempts  int
	BaseBackoff         time.Duration
	MaxBackoff          time.Duration
	DecorrelatedJitter  time.Duration
	InterADSleepMin     time.Duration
	InterADSleepMax     time.Duration
	LockDirCandidates   []string
}

// Engine drives one Provision run.
type Engine struct {
	Client  *ociclient.Client
	Config  Config
	Log     logger.Logger
	Metrics metrics.Collector
	// Timeout is the per-call read timeout passed to every launch
	// attempt (0 meaning CLI default).
	Timeout time.Duration
}

// New constructs an Engine.
func New(client *ociclient.Client, cfg Config, log logger.Logger, collector metrics.Collector) *Engine {
	return &Engine{Client: client, Config: cfg, Log: log, Metrics: collector}
}

// Provision implements the pre-flight + main loop of §4.5. specPath is
// the user-supplied launch spec template; ads is the ordered AD list;
// profile selects the OCI CLI profile; out receives the instance JSON
// on success (stdout or a file, per the caller); dryRun logs the
// rendered specs and returns without launching.
func (e *Engine) Provision(ctx context.Context, specPath string, ads []int, profile string, out func([]byte) error, dryRun bool) error {
	template, err := os.ReadFile(specPath)
	if err != nil {
		return oerrors.Wrap(oerrors.ErrSpecInvalid, "reading spec file %s", specPath)
	}
	if err := launchspec.Validate(template); err != nil {
		return err
	}

	rendered, err := launchspec.RenderAll(template, ads)
	if err != nil {
		return err
	}

	if dryRun {
		for _, ad := range ads {
			command := append([]string{e.Client.CLIPath, "compute", "instance", "launch", "--from-json", "file://<rendered-spec-tempfile>"}, ociclient.BuildQuery()...)
			command = append(command, "--profile", profile, "--output", "json")
			e.Log.Info("dry-run: would launch", logger.Int("ad", ad), logger.String("rendered-spec", string(rendered[ad])), logger.String("command", strings.Join(command, " ")))
		}
		return nil
	}

	lock, err := AcquireProcessLock(e.Config.LockDirCandidates, "instance-provision")
	if err != nil {
		return fmt.Errorf("acquiring process lock: %w", err)
	}
	defer lock.Release()

	return e.runLoop(ctx, rendered, ads, profile, out)
}

func (e *Engine) runLoop(ctx context.Context, rendered map[int][]byte, ads []int, profile string, out func([]byte) error) error {
	bo := newCycleBackoff(e.Config.BaseBackoff, e.Config.MaxBackoff, e.Config.MaxBackoffAttempts, e.Config.DecorrelatedJitter)

	totalErrors := 0
	maxTotalErrors := len(ads) * e.Config.MaxErrorCyclesPerAD

	for cycle := 1; cycle <= e.Config.MaxCycles; cycle++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		throttled := false
		cycleErrors := 0

		for i, ad := range ads {
			token, instance, attemptErr := e.attempt(ctx, profile, rendered[ad])

			if token == TokenOK {
				e.recordLaunch(ad, token)
				return out(instance)
			}

			e.recordLaunch(ad, token)

			switch token {
			case TokenEmpty, TokenUnknown:
				totalErrors++
				cycleErrors++
			case TokenTimeout:
				totalErrors++
			case TokenThrottle:
				throttled = true
			}

			if IsFatal(token) {
				return fmt.Errorf("fatal provisioning error on AD %d: %w", ad, attemptErr)
			}

			if totalErrors >= maxTotalErrors {
				return fmt.Errorf("%w: %d errors across %d ADs", oerrors.ErrTooManyTransientErrs, totalErrors, len(ads))
			}

			if i < len(ads)-1 {
				e.sleep(ctx, interADSleep(e.Config.InterADSleepMin, e.Config.InterADSleepMax))
			}
		}

		if throttled {
			bo.onThrottled()
		} else {
			bo.onClean()
		}
		if cycleErrors == 0 {
			totalErrors = 0
		}

		if e.Metrics != nil {
			e.Metrics.RecordCycle(cycle, throttled, totalErrors)
		}

		e.sleep(ctx, bo.NextBackOff())
	}

	return oerrors.ErrMaxCyclesReached
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (e *Engine) recordLaunch(ad int, token Token) {
	if e.Metrics != nil {
		e.Metrics.RecordLaunchAttempt(ad, string(token))
	}
}

// attempt runs one CLI launch call for a single AD and classifies its
// outcome.
func (e *Engine) attempt(ctx context.Context, profile string, specJSON []byte) (Token, []byte, error) {
	tmp, err := os.CreateTemp("", "launch-spec-*.json")
	if err != nil {
		return TokenUnknown, nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(specJSON); err != nil {
		tmp.Close()
		return TokenUnknown, nil, err
	}
	tmp.Close()

	args := append([]string{"compute", "instance", "launch", "--from-json", "file://" + tmp.Name()}, ociclient.BuildQuery()...)

	result, invokeErr := e.Client.Invoke(ctx, profile, args, e.Timeout)
	if invokeErr == nil {
		instance, marshalErr := json.Marshal(result)
		if marshalErr != nil {
			return TokenUnknown, nil, marshalErr
		}
		return TokenOK, instance, nil
	}

	cliErr, ok := invokeErr.(*ociclient.Error)
	if !ok {
		return TokenUnknown, nil, invokeErr
	}

	preambleEmpty := cliErr.Raw == ""
	token := Classify(cliErr.Code, cliErr.Message, cliErr.Status, preambleEmpty)
	return token, nil, cliErr
}
