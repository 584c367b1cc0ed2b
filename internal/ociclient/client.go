package ociclient

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Client is the CLI invocation layer: it runs `<cli> <args...> --profile
// <profile> --output json` and returns either the parsed JSON value or a
// structured *Error.
type Client struct {
	CLIPath string
	Runner  Runner
}

// New creates a Client backed by the real OCI CLI binary.
func New(cliPath string) *Client {
	return &Client{CLIPath: cliPath, Runner: ProcessRunner{}}
}

// Invoke runs `<cli> <args…> --profile <profile> --output json` with a
// read timeout (0 meaning CLI default) and returns a parsed JSON value or
// a structured *Error (§4.1).
func (c *Client) Invoke(ctx context.Context, profile string, args []string, timeout time.Duration) (interface{}, error) {
	full := append(append([]string{}, args...), "--profile", profile, "--output", "json")
	if timeout > 0 {
		secs := int64(timeout / time.Second)
		if secs < 1 {
			secs = 1
		}
		full = append(full, "--read-timeout", strconv.FormatInt(secs, 10))
	}

	stdout, stderr, err := c.Runner.Run(ctx, c.CLIPath, full, timeout)

	if err != nil {
		raw := RawErrorText(stdout, stderr)
		return nil, ParseError(raw)
	}

	trimmed := strings.TrimSpace(string(stdout))
	if trimmed == "" {
		return normalizedEmpty(args), nil
	}

	var value interface{}
	if decodeErr := json.Unmarshal(stdout, &value); decodeErr != nil {
		return nil, ParseError(RawErrorText(stdout, stderr))
	}
	return value, nil
}

// normalizedEmpty implements the exit-zero/empty-stdout normalization of
// §4.1: if the original --query contained "data[]", the empty result is
// [], otherwise it's {}.
func normalizedEmpty(args []string) interface{} {
	for _, a := range args {
		if strings.Contains(a, "data[]") {
			return []interface{}{}
		}
	}
	return map[string]interface{}{}
}
