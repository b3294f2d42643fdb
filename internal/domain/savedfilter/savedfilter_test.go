package savedfilter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/varsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
)

func TestNew_TrimsName(t *testing.T) {
	p := request.Reconstruct("q", nil, 50)
	sf, err := New("id-1", "  Paulistas  ", p, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sf.Name != "Paulistas" {
		t.Errorf("Name = %q", sf.Name)
	}
}

func TestNew_Invalid(t *testing.T) {
	p := request.Reconstruct("q", nil, 50)
	if _, err := New("id", "   ", p, time.Now()); err == nil {
		t.Error("expected error for blank name")
	}
	if _, err := New("", "name", p, time.Now()); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := New("id", strings.Repeat("n", MaxNameLength+1), p, time.Now()); err == nil {
		t.Error("expected error for long name")
	}
}

func TestJSONShape(t *testing.T) {
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	p := request.Reconstruct("", map[string]filter.Value{"UF": filter.String("SP")}, 50)
	sf, _ := New("abc", "SP", p, created)

	data, err := json.Marshal(sf)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"abc","name":"SP","payload":{"query":"","filters":{"UF":"SP"},"limit":50},"createdAt":"2026-10-01T12:00:00Z"}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}
