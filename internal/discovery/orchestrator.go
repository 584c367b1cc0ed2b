// Package discovery drives the phased extraction of a tenancy snapshot:
// tenancy metadata, then concurrent IAM, then concurrent network, then
// sequential DNS / certificates / storage (spec §4.3).
package discovery

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/threatflux/libgo/internal/metrics"
	"github.com/threatflux/libgo/internal/ociclient"
	"github.com/threatflux/libgo/internal/snapshot"
	"github.com/threatflux/libgo/pkg/logger"
)

// Job is one named section extraction, submitted to a phase.
type Job struct {
	Label string
	Run   func(ctx context.Context) error
}

// Orchestrator owns the snapshot store and the OCI client shared by
// every section extractor.
type Orchestrator struct {
	Client            *ociclient.Client
	Store             *snapshot.Store
	Profile           string
	ConfigPath        string
	Timeout           time.Duration
	IgnoredNamespaces []string
	Log               logger.Logger
	Metrics           metrics.Collector
}

// New constructs an Orchestrator.
func New(client *ociclient.Client, store *snapshot.Store, profile, configPath string, timeout time.Duration, ignoredNamespaces []string, log logger.Logger, collector metrics.Collector) *Orchestrator {
	return &Orchestrator{
		Client:            client,
		Store:             store,
		Profile:           profile,
		ConfigPath:        configPath,
		Timeout:           timeout,
		IgnoredNamespaces: ignoredNamespaces,
		Log:               log,
		Metrics:           collector,
	}
}

// Run executes every phase in order and returns a combined error status:
// nil iff every job in every phase returned nil. One job's failure never
// cancels its siblings or aborts later phases; later phases still run
// against whatever the snapshot holds.
func (o *Orchestrator) Run(ctx context.Context) error {
	tenancyOCID, err := ociclient.ReadTenancyOCID(o.ConfigPath, o.Profile)
	if err != nil {
		return fmt.Errorf("reading tenancy OCID: %w", err)
	}

	if err := o.Store.Init(o.Profile, tenancyOCID, o.IgnoredNamespaces, time.Now()); err != nil {
		return fmt.Errorf("initialising snapshot: %w", err)
	}

	var failed bool

	if err := o.runPhase(ctx, "tenancy", []Job{
		{Label: "tenancy", Run: func(ctx context.Context) error { return o.extractTenancy(ctx, tenancyOCID) }},
	}); err != nil {
		failed = true
	}

	if err := o.runPhase(ctx, "iam", []Job{
		{Label: "tag-namespaces", Run: func(ctx context.Context) error { return o.extractTagNamespaces(ctx, tenancyOCID) }},
		{Label: "policies", Run: func(ctx context.Context) error { return o.extractPolicies(ctx, tenancyOCID) }},
		{Label: "groups", Run: func(ctx context.Context) error { return o.extractGroups(ctx, tenancyOCID) }},
		{Label: "users", Run: func(ctx context.Context) error { return o.extractUsers(ctx, tenancyOCID) }},
		{Label: "dynamic-groups", Run: func(ctx context.Context) error { return o.extractDynamicGroups(ctx, tenancyOCID) }},
		{Label: "identity-domains", Run: func(ctx context.Context) error { return o.extractIdentityDomains(ctx, tenancyOCID) }},
		{Label: "compartments", Run: func(ctx context.Context) error { return o.extractCompartments(ctx, tenancyOCID) }},
	}); err != nil {
		failed = true
	}

	compartmentIds, err := o.Store.ReadCompartmentIds()
	if err != nil {
		o.Log.Error("reading compartment set after IAM phase", logger.Error(err))
		failed = true
		compartmentIds = []string{tenancyOCID}
	}

	if err := o.runPhase(ctx, "network", []Job{
		{Label: "vcns", Run: func(ctx context.Context) error { return o.extractVCNs(ctx, compartmentIds) }},
		{Label: "drgs", Run: func(ctx context.Context) error { return o.extractDRGs(ctx, compartmentIds) }},
		{Label: "nsgs", Run: func(ctx context.Context) error { return o.extractNSGs(ctx, compartmentIds) }},
		{Label: "public-ips", Run: func(ctx context.Context) error { return o.extractPublicIPs(ctx, compartmentIds) }},
		{Label: "load-balancers", Run: func(ctx context.Context) error { return o.extractLoadBalancers(ctx, compartmentIds) }},
	}); err != nil {
		failed = true
	}

	if err := o.runPhase(ctx, "dns", []Job{
		{Label: "dns-zones", Run: func(ctx context.Context) error { return o.extractDNSZones(ctx, compartmentIds) }},
	}); err != nil {
		failed = true
	}

	if err := o.runPhase(ctx, "certificates", []Job{
		{Label: "certificates", Run: func(ctx context.Context) error { return o.extractCertificates(ctx, compartmentIds) }},
	}); err != nil {
		failed = true
	}

	if err := o.runPhase(ctx, "storage", []Job{
		{Label: "buckets", Run: func(ctx context.Context) error { return o.extractBuckets(ctx, compartmentIds) }},
	}); err != nil {
		failed = true
	}

	if failed {
		return fmt.Errorf("discovery completed with one or more failed sections")
	}
	return nil
}

// runPhase fans out every job in jobs concurrently, using a plain
// errgroup.Group (not WithContext) so that one job's error is captured
// as a value rather than cancelling its siblings. On SIGINT/SIGTERM
// callers cancel ctx; every CLI call receives ctx, so a running CLI
// subprocess is killed (ProcessRunner uses exec.CommandContext) and an
// extractor's remaining calls fail, after which it returns. No new jobs
// are started by runPhase once ctx is already done.
func (o *Orchestrator) runPhase(ctx context.Context, phase string, jobs []Job) error {
	if ctx.Err() != nil {
		o.Log.Warn("skipping phase, context already cancelled", logger.String("phase", phase))
		return ctx.Err()
	}

	var g errgroup.Group
	results := make(chan jobResult, len(jobs))

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			start := time.Now()
			err := job.Run(ctx)
			results <- jobResult{label: job.Label, err: err, duration: time.Since(start)}
			return nil
		})
	}

	g.Wait()
	close(results)

	var failed bool
	for r := range results {
		ok := r.err == nil
		if o.Metrics != nil {
			o.Metrics.RecordSection(r.label, ok, r.duration)
		}
		if ok {
			o.Log.Info("section extracted", logger.String("phase", phase), logger.String("section", r.label), logger.Duration("duration", r.duration))
		} else {
			o.Log.Error("section extraction failed", logger.String("phase", phase), logger.String("section", r.label), logger.Error(r.err))
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("phase %s had one or more failed sections", phase)
	}
	return nil
}

type jobResult struct {
	label    string
	err      error
	duration time.Duration
}
