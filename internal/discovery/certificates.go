package discovery

import (
	"context"

	"github.com/threatflux/libgo/internal/ociclient"
)

func (o *Orchestrator) extractCertificates(ctx context.Context, compartmentIds []string) error {
	authorities, authDiagnostics := forEachCompartment(compartmentIds, func(compartmentID string) ([]interface{}, error) {
		args := append([]string{"certs-mgmt", "certificate-authority", "list", "--compartment-id", compartmentID},
			ociclient.BuildArrayQuery("id", "name", "lifecycle-state", "certificate-authority-rules")...)
		result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
		if err != nil {
			return nil, err
		}
		list, _ := result.([]interface{})
		return list, nil
	})

	certs, certDiagnostics := forEachCompartment(compartmentIds, func(compartmentID string) ([]interface{}, error) {
		args := append([]string{"certs-mgmt", "certificate", "list", "--compartment-id", compartmentID},
			ociclient.BuildArrayQuery("id", "name", "lifecycle-state", "config-type", "issuer-certificate-authority-id")...)
		result, err := o.Client.Invoke(ctx, o.Profile, args, o.Timeout)
		if err != nil {
			return nil, err
		}
		list, _ := result.([]interface{})
		return list, nil
	})

	fragment := map[string]interface{}{
		"ssl-certificates":        certs,
		"certificate-authorities": authorities,
	}

	if writeErr := o.Store.WriteSection(".certificates", fragment); writeErr != nil {
		return writeErr
	}

	diagnostics := append(authDiagnostics, certDiagnostics...)
	return diagnosticsErr("certificates", diagnostics)
}
