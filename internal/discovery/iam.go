package discovery

import (
	"context"
	"fmt"

	"github.com/threatflux/libgo/internal/ociclient"
)

func (o *Orchestrator) extractTenancy(ctx context.Context, tenancyOCID string) error {
	args := append([]string{"iam", "tenancy", "get", "--tenancy-id", tenancyOCID},
		ociclient.BuildQuery("id", "name", "description", "home-region-key")...)

	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return fmt.Errorf("fetching tenancy metadata: %w", err)
	}

	return o.Store.WriteSection(".iam.tenancy", result)
}

func (o *Orchestrator) extractTagNamespaces(ctx context.Context, tenancyOCID string) error {
	nsArgs := append([]string{"iam", "tag-namespace", "list", "--compartment-id", tenancyOCID},
		ociclient.BuildArrayQuery("id", "name", "description", "is-retired", "defined-tags", "freeform-tags", "lifecycle-state")...)

	namespaces, err := o.Client.Invoke(ctx, o.Profile, nsArgs, o.Timeout)
	if err != nil {
		return fmt.Errorf("listing tag namespaces: %w", err)
	}

	defaultsArgs := append([]string{"iam", "tag-default", "list", "--compartment-id", tenancyOCID},
		ociclient.BuildArrayQuery("id", "value", "is-required", "lifecycle-state", "locks", "tag-namespace-id", "tag-definition-id")...)
	defaults, defaultsErr := o.Client.Invoke(ctx, o.Profile, defaultsArgs, o.Timeout)
	if defaultsErr != nil {
		defaults = []interface{}{}
	}
	defaultList, _ := defaults.([]interface{})

	var diagnostics []string
	nsList, _ := namespaces.([]interface{})
	ignored := map[string]bool{}
	for _, n := range o.IgnoredNamespaces {
		ignored[n] = true
	}

	fragment := make([]interface{}, 0, len(nsList))
	for _, raw := range nsList {
		ns, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := ns["name"].(string)
		ns["ignored"] = ignored[name]

		nsID, _ := ns["id"].(string)
		tagDefs, err := o.extractTagDefinitions(ctx, nsID, defaultList)
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("namespace %s: %v", name, err))
			ns["tag-definitions"] = []interface{}{}
		} else {
			ns["tag-definitions"] = tagDefs
		}

		fragment = append(fragment, ns)
	}

	if writeErr := o.Store.WriteSection(".iam.tag-namespaces", fragment); writeErr != nil {
		return writeErr
	}

	if defaultsErr != nil {
		diagnostics = append(diagnostics, fmt.Sprintf("listing tag defaults: %v", defaultsErr))
	}
	if len(diagnostics) > 0 {
		return fmt.Errorf("tag namespace extraction had %d child failures: %v", len(diagnostics), diagnostics)
	}
	return nil
}

// extractTagDefinitions implements the tag-namespace child algorithm
// (§4.4): list tag names under the namespace, fetch each full
// definition, then attach the first matching tag-default (by
// tag-namespace-id + tag-definition-id), or nil if none matches.
func (o *Orchestrator) extractTagDefinitions(ctx context.Context, namespaceID string, defaults []interface{}) ([]interface{}, error) {
	args := append([]string{"iam", "tag", "list", "--tag-namespace-id", namespaceID},
		ociclient.BuildArrayQuery("name")...)

	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return nil, err
	}

	list, _ := result.([]interface{})
	out := make([]interface{}, 0, len(list))
	for _, raw := range list {
		summary, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		tagName, _ := summary["name"].(string)
		getArgs := append([]string{"iam", "tag", "get", "--tag-namespace-id", namespaceID, "--tag-name", tagName},
			ociclient.BuildQuery("id", "name", "description", "is-cost-tracking", "is-retired", "tags", "lifecycle-state", "validator")...)
		full, err := o.Client.Invoke(ctx, o.Profile, getArgs, o.Timeout)
		if err != nil {
			return nil, err
		}
		tag, ok := full.(map[string]interface{})
		if !ok {
			continue
		}
		tag["tag-default"] = firstMatchingDefault(namespaceID, tag, defaults)
		out = append(out, tag)
	}
	return out, nil
}

func firstMatchingDefault(namespaceID string, tag map[string]interface{}, defaults []interface{}) interface{} {
	tagID, _ := tag["id"].(string)
	for _, raw := range defaults {
		d, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if d["tag-namespace-id"] == namespaceID && d["tag-definition-id"] == tagID {
			return d
		}
	}
	return nil
}

func (o *Orchestrator) extractPolicies(ctx context.Context, tenancyOCID string) error {
	args := append([]string{"iam", "policy", "list", "--compartment-id", tenancyOCID, "--compartment-id-in-subtree", "true"},
		ociclient.BuildArrayQuery("id", "name", "description", "statements", "compartment-id", "lifecycle-state")...)

	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return fmt.Errorf("listing policies: %w", err)
	}
	return o.Store.WriteSection(".iam.policies", result)
}

func (o *Orchestrator) extractGroups(ctx context.Context, tenancyOCID string) error {
	args := append([]string{"iam", "group", "list", "--compartment-id", tenancyOCID},
		ociclient.BuildArrayQuery("id", "name", "description", "lifecycle-state")...)

	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return fmt.Errorf("listing groups: %w", err)
	}
	return o.Store.WriteSection(".iam.groups", result)
}

func (o *Orchestrator) extractUsers(ctx context.Context, tenancyOCID string) error {
	args := append([]string{"iam", "user", "list", "--compartment-id", tenancyOCID},
		ociclient.BuildArrayQuery("id", "name", "description", "email", "is-mfa-activated", "lifecycle-state")...)

	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	list, _ := result.([]interface{})
	var diagnostics []string
	fragment := make([]interface{}, 0, len(list))
	for _, raw := range list {
		user, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		userID, _ := user["id"].(string)
		userName, _ := user["name"].(string)

		memberships, err := o.Client.Invoke(ctx, o.Profile,
			append([]string{"iam", "group", "list", "--compartment-id", tenancyOCID, "--user-id", userID},
				ociclient.BuildArrayQuery("id", "name")...), o.Timeout)
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("user %s group memberships: %v", userName, err))
			memberships = []interface{}{}
		}
		user["group-memberships"] = memberships

		apiKeys, err := o.Client.Invoke(ctx, o.Profile,
			append([]string{"iam", "user", "api-key", "list", "--user-id", userID},
				ociclient.BuildArrayQuery("key-id", "fingerprint", "lifecycle-state")...), o.Timeout)
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("user %s api keys: %v", userName, err))
			apiKeys = []interface{}{}
		}
		user["api-keys"] = apiKeys

		fragment = append(fragment, user)
	}

	if writeErr := o.Store.WriteSection(".iam.users", fragment); writeErr != nil {
		return writeErr
	}
	if len(diagnostics) > 0 {
		return fmt.Errorf("user extraction had %d child failures: %v", len(diagnostics), diagnostics)
	}
	return nil
}

func (o *Orchestrator) extractDynamicGroups(ctx context.Context, tenancyOCID string) error {
	args := append([]string{"iam", "dynamic-group", "list", "--compartment-id", tenancyOCID},
		ociclient.BuildArrayQuery("id", "name", "description", "matching-rule", "lifecycle-state")...)

	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return fmt.Errorf("listing dynamic groups: %w", err)
	}
	return o.Store.WriteSection(".iam.dynamic-groups", result)
}

func (o *Orchestrator) extractIdentityDomains(ctx context.Context, tenancyOCID string) error {
	args := append([]string{"iam", "domain", "list", "--compartment-id", tenancyOCID},
		ociclient.BuildArrayQuery("id", "display-name", "description", "url", "is-hidden-on-login", "lifecycle-state")...)

	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return fmt.Errorf("listing identity domains: %w", err)
	}
	return o.Store.WriteSection(".iam.identity-domains", result)
}

// extractCompartments uses --access-level ANY and
// --compartment-id-in-subtree true so the whole tree is captured in one
// call (§4.4).
func (o *Orchestrator) extractCompartments(ctx context.Context, tenancyOCID string) error {
	args := append([]string{
		"iam", "compartment", "list",
		"--compartment-id", tenancyOCID,
		"--access-level", "ANY",
		"--compartment-id-in-subtree", "true",
	}, ociclient.BuildArrayQuery("id", "name", "description", "compartment-id", "lifecycle-state")...)

	result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
	if err != nil {
		return fmt.Errorf("listing compartments: %w", err)
	}
	return o.Store.WriteSection(".iam.compartments", result)
}
