package category

import (
	"errors"
	"sort"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		category string
		wantPath string
		wantErr  bool
	}{
		{
			name:     "network device",
			category: "networkdevice",
			wantPath: "config/networkdevice",
		},
		{
			name:     "endpoint",
			category: "endpoint",
			wantPath: "config/endpoint",
		},
		{
			name:     "unknown category",
			category: "flux-capacitor",
			wantErr:  true,
		},
		{
			name:     "empty name",
			category: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Resolve(tt.category)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknown) {
					t.Errorf("Resolve(%q) error = %v, want ErrUnknown", tt.category, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.category, err)
			}
			if c.BasePath != tt.wantPath {
				t.Errorf("BasePath = %q, want %q", c.BasePath, tt.wantPath)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestNames_SortedAndComplete(t *testing.T) {
	names := Names()

	if len(names) != len(table) {
		t.Errorf("Names() returned %d entries, table has %d", len(names), len(table))
	}
	if !sort.StringsAreSorted(names) {
		t.Error("Names() is not sorted")
	}
	for _, name := range names {
		if _, err := Resolve(name); err != nil {
			t.Errorf("Resolve(%q) error: %v", name, err)
		}
	}
}

func TestTable_PathsMatchNames(t *testing.T) {
	for name, c := range table {
		if !strings.HasPrefix(c.BasePath, "config/") {
			t.Errorf("category %q path %q lacks config/ prefix", name, c.BasePath)
		}
		if c.IDField == "" {
			t.Errorf("category %q has empty IDField", name)
		}
	}
}
