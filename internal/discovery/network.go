package discovery

import (
	"context"
	"fmt"

	"github.com/threatflux/libgo/internal/ociclient"
)

// forEachCompartment invokes fetch once per compartment id and appends
// whatever it returns to a combined list. A single compartment's
// failure appends a diagnostic line and contributes nothing, never
// aborting the remaining compartments (§4.3 partial-failure semantics).
func forEachCompartment(compartmentIds []string, fetch func(compartmentID string) ([]interface{}, error)) ([]interface{}, []string) {
	var combined []interface{}
	var diagnostics []string
	for _, id := range compartmentIds {
		items, err := fetch(id)
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("compartment %s: %v", id, err))
			continue
		}
		combined = append(combined, items...)
	}
	if combined == nil {
		combined = []interface{}{}
	}
	return combined, diagnostics
}

func (o *Orchestrator) extractVCNs(ctx context.Context, compartmentIds []string) error {
	fragment, diagnostics := forEachCompartment(compartmentIds, func(compartmentID string) ([]interface{}, error) {
		args := append([]string{"network", "vcn", "list", "--compartment-id", compartmentID},
			ociclient.BuildArrayQuery("id", "display-name", "cidr-blocks", "default-route-table-id", "lifecycle-state")...)
		result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
		if err != nil {
			return nil, err
		}
		list, _ := result.([]interface{})

		for _, raw := range list {
			vcn, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			vcnID, _ := vcn["id"].(string)
			vcn["subnets"] = o.listChildren(ctx, "network", "subnet", vcnID, compartmentID, "id", "display-name", "cidr-block", "availability-domain", "lifecycle-state")
			vcn["route-tables"] = o.listChildren(ctx, "network", "route-table", vcnID, compartmentID, "id", "display-name", "route-rules", "lifecycle-state")
			vcn["security-lists"] = o.listChildren(ctx, "network", "security-list", vcnID, compartmentID, "id", "display-name", "ingress-security-rules", "egress-security-rules", "lifecycle-state")
			vcn["internet-gateways"] = o.listChildren(ctx, "network", "internet-gateway", vcnID, compartmentID, "id", "display-name", "is-enabled", "lifecycle-state")
			vcn["nat-gateways"] = o.listChildren(ctx, "network", "nat-gateway", vcnID, compartmentID, "id", "display-name", "nat-ip", "lifecycle-state")
			vcn["service-gateways"] = o.listChildren(ctx, "network", "service-gateway", vcnID, compartmentID, "id", "display-name", "services", "lifecycle-state")
			vcn["drg-attachments"] = o.listChildren(ctx, "network", "drg-attachment", vcnID, compartmentID, "id", "display-name", "drg-id", "lifecycle-state")
		}
		return list, nil
	})

	if writeErr := o.Store.WriteSection(".network.vcns", fragment); writeErr != nil {
		return writeErr
	}
	return diagnosticsErr("vcns", diagnostics)
}

// listChildren fetches children of a VCN-scoped resource, scoped by
// --vcn-id and --compartment-id, and swallows errors into an empty list
// since children are best-effort per the parent-child contract.
func (o *Orchestrator) listChildren(ctx context.Context, service, resource, vcnID, compartmentID string, fields ...string) []interface{} {
	args := append([]string{service, resource, "list", "--vcn-id", vcnID, "--compartment-id", compartmentID},
		ociclient.BuildArrayQuery(fields...)...)
	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return []interface{}{}
	}
	list, ok := result.([]interface{})
	if !ok {
		return []interface{}{}
	}
	return list
}

func (o *Orchestrator) extractDRGs(ctx context.Context, compartmentIds []string) error {
	fragment, diagnostics := forEachCompartment(compartmentIds, func(compartmentID string) ([]interface{}, error) {
		args := append([]string{"network", "drg", "list", "--compartment-id", compartmentID},
			ociclient.BuildArrayQuery("id", "display-name", "lifecycle-state")...)
		result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
		if err != nil {
			return nil, err
		}
		list, _ := result.([]interface{})
		return list, nil
	})

	if writeErr := o.Store.WriteSection(".network.drgs", fragment); writeErr != nil {
		return writeErr
	}
	return diagnosticsErr("drgs", diagnostics)
}

func (o *Orchestrator) extractNSGs(ctx context.Context, compartmentIds []string) error {
	fragment, diagnostics := forEachCompartment(compartmentIds, func(compartmentID string) ([]interface{}, error) {
		args := append([]string{"network", "nsg", "list", "--compartment-id", compartmentID},
			ociclient.BuildArrayQuery("id", "display-name", "vcn-id", "lifecycle-state")...)
		result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
		if err != nil {
			return nil, err
		}
		list, _ := result.([]interface{})

		for _, raw := range list {
			nsg, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			nsgID, _ := nsg["id"].(string)
			rulesArgs := append([]string{"network", "nsg", "rules", "list", "--nsg-id", nsgID},
				ociclient.BuildArrayQuery("direction", "protocol", "is-valid", "source", "destination")...)
			rules, err := o.Client.Invoke(ctx, o.Profile, rulesArgs, o.Timeout)
			if err != nil {
				nsg["rules"] = []interface{}{}
				continue
			}
			nsg["rules"] = rules
		}
		return list, nil
	})

	if writeErr := o.Store.WriteSection(".network.nsgs", fragment); writeErr != nil {
		return writeErr
	}
	return diagnosticsErr("nsgs", diagnostics)
}

// extractPublicIPs is scoped REGION, per-compartment (§4.4).
func (o *Orchestrator) extractPublicIPs(ctx context.Context, compartmentIds []string) error {
	fragment, diagnostics := forEachCompartment(compartmentIds, func(compartmentID string) ([]interface{}, error) {
		args := append([]string{"network", "public-ip", "list", "--compartment-id", compartmentID, "--scope", "REGION"},
			ociclient.BuildArrayQuery("id", "display-name", "ip-address", "lifetime", "lifecycle-state")...)
		result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
		if err != nil {
			return nil, err
		}
		list, _ := result.([]interface{})
		return list, nil
	})

	if writeErr := o.Store.WriteSection(`.network."public-ips"`, fragment); writeErr != nil {
		return writeErr
	}
	return diagnosticsErr("public-ips", diagnostics)
}

func (o *Orchestrator) extractLoadBalancers(ctx context.Context, compartmentIds []string) error {
	fragment, diagnostics := forEachCompartment(compartmentIds, func(compartmentID string) ([]interface{}, error) {
		args := append([]string{"lb", "load-balancer", "list", "--compartment-id", compartmentID},
			ociclient.BuildArrayQuery("id", "display-name", "ip-addresses", "shape-name", "lifecycle-state")...)
		result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
		if err != nil {
			return nil, err
		}
		list, _ := result.([]interface{})

		for _, raw := range list {
			lb, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			lbID, _ := lb["id"].(string)
			lb["backend-sets"] = o.lbChild(ctx, "backend-set", lbID)
			lb["listeners"] = o.lbChild(ctx, "listener", lbID)
			lb["certificates"] = o.lbChild(ctx, "certificate", lbID)
			lb["hostnames"] = o.lbChild(ctx, "hostname", lbID)
			lb["path-route-sets"] = o.lbChild(ctx, "path-route-set", lbID)
			lb["rule-sets"] = o.lbChild(ctx, "rule-set", lbID)
		}
		return list, nil
	})

	if writeErr := o.Store.WriteSection(".network.load-balancers", fragment); writeErr != nil {
		return writeErr
	}
	return diagnosticsErr("load-balancers", diagnostics)
}

func (o *Orchestrator) lbChild(ctx context.Context, resource, lbID string) []interface{} {
	args := append([]string{"lb", resource, "list", "--load-balancer-id", lbID}, ociclient.BuildArrayQuery()...)
	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return []interface{}{}
	}
	list, ok := result.([]interface{})
	if !ok {
		return []interface{}{}
	}
	return list
}

func diagnosticsErr(section string, diagnostics []string) error {
	if len(diagnostics) == 0 {
		return nil
	}
	return fmt.Errorf("%s had %d child failures: %v", section, len(diagnostics), diagnostics)
}
