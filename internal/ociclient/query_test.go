package ociclient

import (
	"strings"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	cases := []struct {
		name   string
		fields []string
		want   []string
	}{
		{
			name:   "no fields",
			fields: nil,
			want:   []string{"--query", "data"},
		},
		{
			name:   "single field",
			fields: []string{"id"},
			want:   []string{"--query", "data.{id:id}"},
		},
		{
			name:   "multiple fields",
			fields: []string{"a", "b", "c"},
			want:   []string{"--query", "data.{a:a, b:b, c:c}"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildQuery(tc.fields...)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Errorf("BuildQuery(%v) = %v, want %v", tc.fields, got, tc.want)
			}
		})
	}
}

func TestBuildArrayQuery(t *testing.T) {
	cases := []struct {
		name   string
		fields []string
		want   []string
	}{
		{
			name:   "no fields",
			fields: nil,
			want:   []string{"--query", "data[]", "--all"},
		},
		{
			name:   "multiple fields",
			fields: []string{"id", "name"},
			want:   []string{"--query", "data[].{id:id, name:name}", "--all"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildArrayQuery(tc.fields...)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Errorf("BuildArrayQuery(%v) = %v, want %v", tc.fields, got, tc.want)
			}
		})
	}
}
