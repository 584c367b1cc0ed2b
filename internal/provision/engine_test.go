package provision

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/threatflux/libgo/internal/metrics"
	"github.com/threatflux/libgo/internal/ociclient"
	"github.com/threatflux/libgo/pkg/logger"
)

type scriptedAttempts struct {
	results []scriptedAttempt
	calls   int
}

type scriptedAttempt struct {
	stdout string
	stderr string
	err    error
}

func (s *scriptedAttempts) Run(ctx context.Context, name string, args []string, timeout time.Duration) ([]byte, []byte, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	r := s.results[i]
	return []byte(r.stdout), []byte(r.stderr), r.err
}

func testEngine(t *testing.T, runner ociclient.Runner) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	specPath := filepath.Join(dir, "spec.json")
	spec := `{"availabilityDomain": "AD-{{AD_NUMBER}}", "shape": "VM.Standard.E4.Flex"}`
	if err := os.WriteFile(specPath, []byte(spec), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := Config{
		MaxCycles:           5,
		MaxErrorCyclesPerAD: 3,
		MaxBackoffAttempts:  9,
		BaseBackoff:         time.Millisecond,
		MaxBackoff:          5 * time.Millisecond,
		DecorrelatedJitter:  0,
		InterADSleepMin:     time.Millisecond,
		InterADSleepMax:     time.Millisecond,
		LockDirCandidates:   []string{dir},
	}

	client := &ociclient.Client{CLIPath: "oci", Runner: runner}
	e := New(client, cfg, logger.NewNopLogger(), &metrics.NoopCollector{})
	return e, specPath
}

func TestEngine_Provision_DryRun(t *testing.T) {
	e, specPath := testEngine(t, &scriptedAttempts{})

	called := false
	err := e.Provision(context.Background(), specPath, []int{1, 2}, "DEFAULT", func(b []byte) error {
		called = true
		return nil
	}, true)
	if err != nil {
		t.Fatalf("Provision(dryRun) error = %v", err)
	}
	if called {
		t.Error("out callback invoked during dry run")
	}
}

func TestEngine_Provision_SucceedsOnFirstAD(t *testing.T) {
	runner := &scriptedAttempts{results: []scriptedAttempt{
		{stdout: `{"data": {"id": "ocid1.instance.oc1..abc"}}`},
	}}
	e, specPath := testEngine(t, runner)

	var got []byte
	err := e.Provision(context.Background(), specPath, []int{1, 2}, "DEFAULT", func(b []byte) error {
		got = b
		return nil
	}, false)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if !strings.Contains(string(got), "ocid1.instance.oc1..abc") {
		t.Errorf("out() received = %s, missing instance id", got)
	}
}

func TestEngine_Provision_FatalAuthStopsImmediately(t *testing.T) {
	runner := &scriptedAttempts{results: []scriptedAttempt{
		{stderr: `ServiceError: {"code": "NotAuthenticated", "message": "bad key", "status": 401}`, err: context.DeadlineExceeded},
	}}
	e, specPath := testEngine(t, runner)

	err := e.Provision(context.Background(), specPath, []int{1, 2, 3}, "DEFAULT", func(b []byte) error { return nil }, false)
	if err == nil {
		t.Fatal("Provision() error = nil, want fatal auth error")
	}
	if runner.calls != 1 {
		t.Errorf("calls = %d, want 1 (should stop at first fatal attempt)", runner.calls)
	}
}

func TestEngine_Provision_MaxCyclesReached(t *testing.T) {
	runner := &scriptedAttempts{results: []scriptedAttempt{
		{stderr: `ServiceError: {"code": "IncorrectState", "message": "instance busy", "status": 409}`, err: context.DeadlineExceeded},
	}}
	e, specPath := testEngine(t, runner)
	e.Config.MaxCycles = 2
	e.Config.MaxErrorCyclesPerAD = 1000

	err := e.Provision(context.Background(), specPath, []int{1}, "DEFAULT", func(b []byte) error { return nil }, false)
	if err == nil {
		t.Fatal("Provision() error = nil, want max-cycles error")
	}
}
