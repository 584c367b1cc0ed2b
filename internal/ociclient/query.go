package ociclient

import "strings"

// BuildQuery returns the --query flags for a scalar (non-list) CLI
// projection: --query data.{f1:f1, f2:f2, ...}, or plain --query data
// when no fields are requested (spec §4.1, §8 round-trip law).
func BuildQuery(fields ...string) []string {
	if len(fields) == 0 {
		return []string{"--query", "data"}
	}
	return []string{"--query", "data." + projection(fields)}
}

// BuildArrayQuery returns the --query flags for a list projection, plus
// --all to enable CLI-side pagination: --query data[].{f1:f1, ...} --all.
func BuildArrayQuery(fields ...string) []string {
	if len(fields) == 0 {
		return []string{"--query", "data[]", "--all"}
	}
	return []string{"--query", "data[]." + projection(fields), "--all"}
}

// projection renders {a:a, b:b, c:c}.
func projection(fields []string) string {
	pairs := make([]string, len(fields))
	for i, f := range fields {
		pairs[i] = f + ":" + f
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}
