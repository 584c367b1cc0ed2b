package ociclient

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Error is the structured outcome of a failed CLI invocation (§4.1).
type Error struct {
	Code    string
	Message string
	Status  int
	// Raw is the original, possibly truncated, diagnostic text.
	Raw string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

const nonJSONCode = "NonJsonResponse"

var errorPreambleRe = regexp.MustCompile(`Error: (.*)`)

// RawErrorText extracts the payload of a failed invocation per §4.1:
// the first line of stderr, or failing that, the text captured by a
// regex of the form "Error: (.*)" in stdout.
func RawErrorText(stdout, stderr []byte) string {
	if s := strings.TrimSpace(string(stderr)); s != "" {
		firstLine := strings.SplitN(s, "\n", 2)[0]
		return strings.TrimSpace(firstLine)
	}
	if m := errorPreambleRe.FindStringSubmatch(string(stdout)); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ParseError is a total function: for any byte string input it returns a
// populated *Error (spec §8 round-trip law #2).
//
//  1. If raw contains no '{', treat it as a plain preamble with
//     synthetic code NonJsonResponse and status 500.
//  2. Otherwise split at the first '{'; attempt to JSON-decode the suffix.
//  3. On decode success, extract code (default "Unknown"), message
//     (default "None"), status (default 500).
//  4. On decode failure, synthesize the same NonJsonResponse tuple and
//     truncate the raw body to 150 chars for logging.
func ParseError(raw string) *Error {
	raw = strings.TrimSpace(raw)

	idx := strings.IndexByte(raw, '{')
	if idx < 0 {
		return &Error{Code: nonJSONCode, Message: raw, Status: 500, Raw: raw}
	}

	preamble := strings.TrimSpace(raw[:idx])
	suffix := raw[idx:]

	var body errorBody
	if err := json.Unmarshal([]byte(suffix), &body); err != nil {
		msg := preamble
		if msg == "" {
			msg = truncate(raw, 150)
		}
		return &Error{Code: nonJSONCode, Message: msg, Status: 500, Raw: truncate(raw, 150)}
	}

	code := body.Code
	if code == "" {
		code = "Unknown"
	}
	message := body.Message
	if message == "" {
		message = "None"
	}
	status := body.Status
	if status == 0 {
		status = 500
	}

	return &Error{Code: code, Message: message, Status: status, Raw: raw}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
