package discovery

import (
	"context"

	"github.com/threatflux/libgo/internal/ociclient"
)

// extractBuckets attaches each bucket's lifecycle-policy (object or nil)
// and replication-policies array (§3.2).
func (o *Orchestrator) extractBuckets(ctx context.Context, compartmentIds []string) error {
	namespace, nsErr := o.bucketNamespace(ctx)

	fragment, diagnostics := forEachCompartment(compartmentIds, func(compartmentID string) ([]interface{}, error) {
		args := append([]string{"os", "bucket", "list", "--compartment-id", compartmentID, "--namespace-name", namespace},
			ociclient.BuildArrayQuery("name", "namespace", "compartment-id")...)
		result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
		if err != nil {
			return nil, err
		}
		list, _ := result.([]interface{})

		for _, raw := range list {
			bucket, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			bucketName, _ := bucket["name"].(string)

			lifecycleArgs := append([]string{"os", "object-lifecycle-policy", "get", "--namespace-name", namespace, "--bucket-name", bucketName},
				ociclient.BuildQuery("items")...)
			lifecycle, err := o.Client.Invoke(ctx, o.Profile, lifecycleArgs, o.Timeout)
			if err != nil {
				bucket["lifecycle-policy"] = nil
			} else {
				bucket["lifecycle-policy"] = lifecycle
			}

			replicationArgs := append([]string{"os", "replication-policy", "list", "--namespace-name", namespace, "--bucket-name", bucketName},
				ociclient.BuildArrayQuery("id", "name", "destination-bucket-name", "destination-region-name", "status")...)
			replication, err := o.Client.Invoke(ctx, o.Profile, replicationArgs, o.Timeout)
			if err != nil {
				bucket["replication-policies"] = []interface{}{}
			} else {
				bucket["replication-policies"] = replication
			}
		}
		return list, nil
	})

	if writeErr := o.Store.WriteSection(".storage.buckets", fragment); writeErr != nil {
		return writeErr
	}

	if nsErr != nil {
		diagnostics = append(diagnostics, "object-storage namespace: "+nsErr.Error())
	}
	return diagnosticsErr("buckets", diagnostics)
}

func (o *Orchestrator) bucketNamespace(ctx context.Context) (string, error) {
	args := append([]string{"os", "ns", "get"}, ociclient.BuildQuery()...)
	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return "", err
	}
	ns, _ := result.(string)
	return ns, nil
}
