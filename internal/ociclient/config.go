package ociclient

import (
	"strings"

	"gopkg.in/ini.v1"

	oerrors "github.com/threatflux/libgo/internal/errors"
)

// ReadTenancyOCID locates the given profile's section in an OCI CLI
// config INI file and returns its tenancy OCID (§4.1). A missing config
// file, missing profile section, missing tenancy key, or an empty
// tenancy value are each reported as a distinct sentinel-wrapped error.
func ReadTenancyOCID(configPath, profile string) (string, error) {
	cfg, err := ini.Load(configPath)
	if err != nil {
		return "", oerrors.Wrap(oerrors.ErrConfigNotFound, "%s", err.Error())
	}

	if !cfg.HasSection(profile) {
		return "", oerrors.Wrap(oerrors.ErrProfileNotFound, "profile %s", profile)
	}

	section := cfg.Section(profile)
	key, err := section.GetKey("tenancy")
	if err != nil {
		return "", oerrors.Wrap(oerrors.ErrTenancyLineMissing, "profile %s", profile)
	}

	ocid := strings.TrimSpace(key.Value())
	if ocid == "" {
		return "", oerrors.Wrap(oerrors.ErrEmptyOCID, "profile %s", profile)
	}

	return ocid, nil
}
