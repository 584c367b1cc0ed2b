// Package snapshot owns the single discovery snapshot file: initial
// skeleton creation and atomic, mutex-guarded section writes (spec
// §4.2).
package snapshot

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/threatflux/libgo/internal/atomicfile"
	oerrors "github.com/threatflux/libgo/internal/errors"
)

const SchemaVersion = "oci.tenancy.discovery.v1"

// DefaultLockPollInterval and DefaultLockMaxAttempts are the file-mutex
// defaults from spec §4.2; a Store's PollInterval and MaxAttempts fields
// override them for WriteSection (Init does not take the mutex).
const (
	DefaultLockPollInterval = 50 * time.Millisecond
	DefaultLockMaxAttempts  = 200
)

// Store provides atomic initialisation and read-modify-write access to
// the snapshot file at Path, serialised through a sibling lock
// directory.
type Store struct {
	Path         string
	PollInterval time.Duration
	MaxAttempts  int
}

// New returns a Store with spec-default lock polling parameters.
func New(path string) *Store {
	return &Store{
		Path:         path,
		PollInterval: DefaultLockPollInterval,
		MaxAttempts:  DefaultLockMaxAttempts,
	}
}

var sectionSkeletons = map[string]string{
	"iam": `{
		"tenancy": {},
		"compartments": [],
		"tag-namespaces": [],
		"policies": [],
		"groups": [],
		"users": [],
		"dynamic-groups": [],
		"identity-domains": []
	}`,
	"network": `{
		"vcns": [],
		"drgs": [],
		"nsgs": [],
		"public-ips": [],
		"load-balancers": []
	}`,
	"storage":      `{"buckets": []}`,
	"certificates": `{"ssl-certificates": [], "certificate-authorities": []}`,
	"dns":          `{"zones": []}`,
}

// Init writes the skeleton document (§3.1): a meta header plus every
// section pre-populated with its known sub-keys, atomically.
func (s *Store) Init(profile, tenancyOCID string, ignoredNamespaces []string, now time.Time) error {
	doc := map[string]interface{}{
		"meta": map[string]interface{}{
			"schema":      SchemaVersion,
			"profile":     profile,
			"captured-at": now.UTC().Format(time.RFC3339),
			"ignored": map[string]interface{}{
				"tag-namespaces": ignoredNamespaces,
			},
		},
	}

	for section, skeleton := range sectionSkeletons {
		var v interface{}
		if err := json.Unmarshal([]byte(skeleton), &v); err != nil {
			return oerrors.Wrap(oerrors.ErrSnapshotInvalid, "decoding built-in skeleton for %s", section)
		}
		doc[section] = v
	}

	if tenancyOCID != "" {
		doc["iam"].(map[string]interface{})["tenancy"] = map[string]interface{}{"id": tenancyOCID}
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return oerrors.Wrap(oerrors.ErrSnapshotInvalid, "marshalling skeleton document")
	}

	return atomicfile.Write(s.Path, payload, 0o644)
}

// WriteSection acquires the file mutex, reads current contents, splices
// value at pointer (a dotted path like ".iam.policies" or
// `.network."public-ips"`, quotes optional), writes a sibling tempfile,
// renames, and releases the mutex.
func (s *Store) WriteSection(pointer string, value interface{}) error {
	lock := atomicfile.NewLock(s.Path)
	if err := lock.Acquire(s.pollInterval(), s.maxAttempts()); err != nil {
		return err
	}
	defer lock.Release()

	current, err := os.ReadFile(s.Path)
	if err != nil {
		return oerrors.Wrap(oerrors.ErrSpliceFailed, "reading snapshot %s", s.Path)
	}

	if !gjson.ValidBytes(current) {
		return oerrors.Wrap(oerrors.ErrSnapshotInvalid, "existing snapshot %s is not valid JSON", s.Path)
	}

	path := normalizePointer(pointer)

	updated, err := sjson.SetBytes(current, path, value)
	if err != nil {
		return oerrors.Wrap(oerrors.ErrSpliceFailed, "splicing %s", pointer)
	}

	return atomicfile.Write(s.Path, updated, 0o644)
}

// ReadCompartmentIds returns [tenancyId] ++ iam.compartments[].id, the
// canonical compartment set every network / storage / DNS / certificate
// extractor iterates over.
func (s *Store) ReadCompartmentIds() ([]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, oerrors.Wrap(oerrors.ErrSnapshotInvalid, "reading snapshot %s", s.Path)
	}

	if !gjson.ValidBytes(data) {
		return nil, oerrors.Wrap(oerrors.ErrSnapshotInvalid, "snapshot %s is not valid JSON", s.Path)
	}

	result := gjson.GetBytes(data, "iam.tenancy.id")
	ids := []string{}
	if result.Exists() && result.String() != "" {
		ids = append(ids, result.String())
	}

	for _, c := range gjson.GetBytes(data, "iam.compartments.#.id").Array() {
		ids = append(ids, c.String())
	}

	return ids, nil
}

func (s *Store) pollInterval() time.Duration {
	if s.PollInterval > 0 {
		return s.PollInterval
	}
	return DefaultLockPollInterval
}

func (s *Store) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return DefaultLockMaxAttempts
}

// normalizePointer strips the leading dot and any quoting around
// hyphenated keys so `.network."public-ips"` and `.network.public-ips`
// both become the sjson path `network.public-ips`.
func normalizePointer(pointer string) string {
	p := strings.TrimPrefix(pointer, ".")
	p = strings.ReplaceAll(p, `"`, "")
	return p
}
