package discovery

import (
	"context"

	"github.com/threatflux/libgo/internal/ociclient"
)

// extractDNSZones flattens each zone's nested records (from items) into
// a top-level records key (§3.2).
func (o *Orchestrator) extractDNSZones(ctx context.Context, compartmentIds []string) error {
	fragment, diagnostics := forEachCompartment(compartmentIds, func(compartmentID string) ([]interface{}, error) {
		args := append([]string{"dns", "zone", "list", "--compartment-id", compartmentID},
			ociclient.BuildArrayQuery("id", "name", "zone-type", "lifecycle-state")...)
		result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
		if err != nil {
			return nil, err
		}
		list, _ := result.([]interface{})

		for _, raw := range list {
			zone, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			zoneName, _ := zone["name"].(string)
			recordsArgs := append([]string{"dns", "record", "rrset", "list", "--zone-name-or-id", zoneName, "--compartment-id", compartmentID},
				ociclient.BuildQuery("items")...)
			records, err := o.Client.Invoke(ctx, o.Profile, recordsArgs, o.Timeout)
			if err != nil {
				zone["records"] = []interface{}{}
				continue
			}
			zone["records"] = flattenItems(records)
		}
		return list, nil
	})

	if writeErr := o.Store.WriteSection(".dns.zones", fragment); writeErr != nil {
		return writeErr
	}
	return diagnosticsErr("dns-zones", diagnostics)
}

func flattenItems(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return []interface{}{}
	}
	items, ok := m["items"]
	if !ok {
		return []interface{}{}
	}
	return items
}
