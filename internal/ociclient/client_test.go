package ociclient

import (
	"context"
	"strings"
	"testing"
	"time"
)

type fakeRunner struct {
	stdout  []byte
	stderr  []byte
	err     error
	gotArgs []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) ([]byte, []byte, error) {
	f.gotArgs = args
	return f.stdout, f.stderr, f.err
}

func TestClient_Invoke_Success(t *testing.T) {
	runner := &fakeRunner{stdout: []byte(`{"data": {"id": "ocid1.compartment.oc1..xyz"}}`)}
	c := &Client{CLIPath: "oci", Runner: runner}

	got, err := c.Invoke(context.Background(), "DEFAULT", []string{"iam", "compartment", "list"}, 0)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	m, ok := got.(map[string]interface{})
	if !ok {
		t.Fatalf("Invoke() result type = %T, want map[string]interface{}", got)
	}
	if _, ok := m["data"]; !ok {
		t.Errorf("result missing data key: %v", m)
	}

	if !strings.Contains(strings.Join(runner.gotArgs, " "), "--profile DEFAULT --output json") {
		t.Errorf("gotArgs = %v, missing profile/output flags", runner.gotArgs)
	}
}

func TestClient_Invoke_EmptyStdoutScalar(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("")}
	c := &Client{CLIPath: "oci", Runner: runner}

	got, err := c.Invoke(context.Background(), "DEFAULT", []string{"iam", "compartment", "get", "--query", "data"}, 0)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if _, ok := got.(map[string]interface{}); !ok {
		t.Errorf("empty scalar result type = %T, want map[string]interface{}", got)
	}
}

func TestClient_Invoke_EmptyStdoutArray(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("  \n")}
	c := &Client{CLIPath: "oci", Runner: runner}

	got, err := c.Invoke(context.Background(), "DEFAULT", []string{"iam", "user", "list", "--query", "data[].{id:id}"}, 0)
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	arr, ok := got.([]interface{})
	if !ok {
		t.Fatalf("empty array result type = %T, want []interface{}", got)
	}
	if len(arr) != 0 {
		t.Errorf("len(arr) = %d, want 0", len(arr))
	}
}

func TestClient_Invoke_NonZeroExit(t *testing.T) {
	runner := &fakeRunner{
		stdout: []byte(""),
		stderr: []byte(`ServiceError: {"code": "NotAuthenticated", "message": "missing key", "status": 401}`),
		err:    context.DeadlineExceeded,
	}
	c := &Client{CLIPath: "oci", Runner: runner}

	_, err := c.Invoke(context.Background(), "DEFAULT", []string{"iam", "user", "list"}, time.Second)
	if err == nil {
		t.Fatal("Invoke() error = nil, want non-nil")
	}
	parsed, ok := err.(*Error)
	if !ok {
		t.Fatalf("Invoke() error type = %T, want *Error", err)
	}
	if parsed.Code != "NotAuthenticated" {
		t.Errorf("Code = %q, want NotAuthenticated", parsed.Code)
	}
}

func TestClient_Invoke_MalformedJSONOnSuccess(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("not json at all")}
	c := &Client{CLIPath: "oci", Runner: runner}

	_, err := c.Invoke(context.Background(), "DEFAULT", []string{"iam", "user", "list"}, 0)
	if err == nil {
		t.Fatal("Invoke() error = nil, want non-nil")
	}
}
