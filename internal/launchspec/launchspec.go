// Package launchspec renders the {{AD_NUMBER}} placeholders in a launch
// spec template into one concrete spec per availability domain (spec
// §3.3, §4.5 pre-flight step 2).
package launchspec

import (
	"encoding/json"
	"strconv"
	"strings"

	oerrors "github.com/threatflux/libgo/internal/errors"
)

const adPlaceholder = "{{AD_NUMBER}}"

// Validate reports whether raw is syntactically valid JSON.
func Validate(raw []byte) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return oerrors.Wrap(oerrors.ErrSpecInvalid, "%s", err.Error())
	}
	return nil
}

// RenderForAD substitutes every {{AD_NUMBER}} occurrence in template
// with ad (string substitution only, no JSON-aware templating), then
// re-validates that the result is still well-formed JSON.
func RenderForAD(template []byte, ad int) ([]byte, error) {
	rendered := strings.ReplaceAll(string(template), adPlaceholder, strconv.Itoa(ad))

	if err := Validate([]byte(rendered)); err != nil {
		return nil, oerrors.Wrap(oerrors.ErrSpecInvalid, "rendered spec for AD %d is not valid JSON", ad)
	}

	return []byte(rendered), nil
}

// RenderAll renders template once per AD in ads, returning a map from AD
// number to rendered bytes. It stops at the first rendering failure.
func RenderAll(template []byte, ads []int) (map[int][]byte, error) {
	if err := Validate(template); err != nil {
		return nil, err
	}

	out := make(map[int][]byte, len(ads))
	for _, ad := range ads {
		rendered, err := RenderForAD(template, ad)
		if err != nil {
			return nil, err
		}
		out[ad] = rendered
	}
	return out, nil
}
