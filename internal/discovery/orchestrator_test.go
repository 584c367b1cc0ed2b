package discovery

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/threatflux/libgo/internal/metrics"
	"github.com/threatflux/libgo/internal/ociclient"
	"github.com/threatflux/libgo/internal/snapshot"
	"github.com/threatflux/libgo/pkg/logger"
)

// scriptedRunner returns a canned (stdout, stderr, err) triple keyed by
// a substring match against the invoked args, so tests can stub out
// many distinct CLI calls from one fake.
type scriptedRunner struct {
	mu       sync.Mutex
	byMarker map[string]scriptedResult
	calls    []string
}

type scriptedResult struct {
	stdout string
	err    error
}

func (r *scriptedRunner) on(marker, stdout string) {
	if r.byMarker == nil {
		r.byMarker = map[string]scriptedResult{}
	}
	r.byMarker[marker] = scriptedResult{stdout: stdout}
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) ([]byte, []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	joined := strings.Join(args, " ")
	r.calls = append(r.calls, joined)
	for marker, result := range r.byMarker {
		if strings.Contains(joined, marker) {
			return []byte(result.stdout), nil, result.err
		}
	}
	return []byte(""), nil, nil
}

func newTestOrchestrator(t *testing.T, runner ociclient.Runner) (*Orchestrator, *snapshot.Store) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	store := snapshot.New(path)
	store.PollInterval = time.Millisecond
	store.MaxAttempts = 50

	configPath := filepath.Join(dir, "config")
	writeTestConfig(t, configPath)

	client := &ociclient.Client{CLIPath: "oci", Runner: runner}
	log := logger.NewNopLogger()

	o := New(client, store, "DEFAULT", configPath, 0, []string{"Oracle-Tags"}, log, &metrics.NoopCollector{})
	return o, store
}

func writeTestConfig(t *testing.T, path string) {
	t.Helper()
	contents := "[DEFAULT]\ntenancy=ocid1.tenancy.oc1..aaa\nuser=ocid1.user.oc1..bbb\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestOrchestrator_Run_AllSectionsSucceed(t *testing.T) {
	runner := &scriptedRunner{}
	runner.on("iam tenancy get", `{"id": "ocid1.tenancy.oc1..aaa", "name": "root"}`)
	runner.on("iam tag-namespace list", `[]`)
	runner.on("iam tag-default list", `[]`)
	runner.on("iam policy list", `[]`)
	runner.on("iam group list", `[]`)
	runner.on("iam user list", `[]`)
	runner.on("iam dynamic-group list", `[]`)
	runner.on("iam domain list", `[]`)
	runner.on("iam compartment list", `[{"id": "ocid1.compartment.oc1..xyz", "name": "prod"}]`)
	runner.on("network vcn list", `[]`)
	runner.on("network drg list", `[]`)
	runner.on("network nsg list", `[]`)
	runner.on("network public-ip list", `[]`)
	runner.on("lb load-balancer list", `[]`)
	runner.on("dns zone list", `[]`)
	runner.on("certs-mgmt certificate-authority list", `[]`)
	runner.on("certs-mgmt certificate list", `[]`)
	runner.on("os ns get", `"mynamespace"`)
	runner.on("os bucket list", `[]`)

	o, store := newTestOrchestrator(t, runner)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	ids, err := store.ReadCompartmentIds()
	if err != nil {
		t.Fatalf("ReadCompartmentIds() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ReadCompartmentIds() = %v, want 2 entries", ids)
	}
}

func TestOrchestrator_Run_PartialFailureDoesNotAbort(t *testing.T) {
	runner := &scriptedRunner{}
	runner.on("iam tenancy get", `{"id": "ocid1.tenancy.oc1..aaa"}`)
	runner.on("iam tag-namespace list", `[]`)
	runner.on("iam tag-default list", `[]`)
	runner.on("iam policy list", `[]`)
	runner.on("iam group list", `[]`)
	runner.on("iam user list", `[]`)
	runner.on("iam dynamic-group list", `[]`)
	runner.on("iam domain list", `[]`)
	runner.on("iam compartment list", `not json at all`)
	runner.on("network vcn list", `[]`)
	runner.on("network drg list", `[]`)
	runner.on("network nsg list", `[]`)
	runner.on("network public-ip list", `[]`)
	runner.on("lb load-balancer list", `[]`)
	runner.on("dns zone list", `[]`)
	runner.on("certs-mgmt certificate-authority list", `[]`)
	runner.on("certs-mgmt certificate list", `[]`)
	runner.on("os ns get", `"mynamespace"`)
	runner.on("os bucket list", `[]`)

	o, _ := newTestOrchestrator(t, runner)

	err := o.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want aggregated failure from bad compartment list")
	}

	for _, call := range runner.calls {
		if strings.HasPrefix(call, "network vcn list") {
			return
		}
	}
	t.Error("network phase did not run after IAM phase reported a failure")
}
