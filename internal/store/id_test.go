package store

import (
	"sort"
	"strings"
	"testing"
)

func TestNewTableIDShape(t *testing.T) {
	id := NewTableID()
	if !strings.HasPrefix(id, "tbl_") {
		t.Fatalf("id %q has no table prefix", id)
	}
	if len(id) != len("tbl_")+26 {
		t.Fatalf("id %q is not a prefixed ulid", id)
	}
}

func TestNewTableIDsSortByCreation(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = NewTableID()
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatal("consecutive table ids are not monotonically sortable")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
