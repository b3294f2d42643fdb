package filterstate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/varsearch/internal/domain"
	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
	domschema "github.com/kailas-cloud/varsearch/internal/domain/schema"
	"github.com/kailas-cloud/varsearch/internal/domain/schema/field"
	"github.com/kailas-cloud/varsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
)

func makeSchema(t *testing.T, defs map[string]field.Type) domschema.Schema {
	t.Helper()
	fields := make([]field.Field, 0, len(defs))
	for name, ft := range defs {
		f, err := field.New(name, "", ft, "", nil)
		if err != nil {
			t.Fatalf("field.New: %v", err)
		}
		fields = append(fields, f)
	}
	s, err := domschema.New(fields)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return s
}

func ufContribuinte(t *testing.T) domschema.Schema {
	return makeSchema(t, map[string]field.Type{
		"UF":           field.String,
		"Contribuinte": field.Boolean,
	})
}

func TestToRequest_UFAndContribuinte(t *testing.T) {
	s := New(request.DefaultLimits())
	s.SetValue("UF", "SP")
	s.SetValue("Contribuinte", "true")

	req, err := s.ToRequest(ufContribuinte(t), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, _ := json.Marshal(req)
	want := `{"query":"","filters":{"Contribuinte":true,"UF":"SP"},"limit":50}`
	if string(data) != want {
		t.Errorf("request = %s\nwant      %s", data, want)
	}
}

func TestToRequest_MaybeBooleanIsDropped(t *testing.T) {
	sch := ufContribuinte(t)
	s := New(request.DefaultLimits())
	s.SetValue("Contribuinte", "maybe")

	active, err := s.ActiveFilters(sch)
	if err != nil {
		t.Fatalf("ActiveFilters: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("ActiveFilters = %v, want empty", active)
	}
	if len(s.RawActive()) != 1 {
		t.Errorf("RawActive should still list the raw entry")
	}

	_, err = s.ToRequest(sch, 50)
	if !errors.Is(err, domain.ErrEmptyQuery) {
		t.Fatalf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestToRequest_Boolean(t *testing.T) {
	sch := makeSchema(t, map[string]field.Type{"Ativo": field.Boolean})
	tests := []struct {
		raw    any
		want   bool
		active bool
	}{
		{"true", true, true},
		{"false", false, true},
		{true, true, true},
		{false, false, true},
		{"TRUE", false, false},
		{"yes", false, false},
		{"1", false, false},
	}
	for _, tc := range tests {
		s := New(request.DefaultLimits())
		s.SetQuery("q")
		s.SetValue("Ativo", tc.raw)

		req, err := s.ToRequest(sch, 0)
		if err != nil {
			t.Fatalf("raw %v: unexpected error: %v", tc.raw, err)
		}
		v, ok := req.Filters()["Ativo"]
		if ok != tc.active {
			t.Errorf("raw %v: active = %v, want %v", tc.raw, ok, tc.active)
			continue
		}
		if ok && (v.Kind() != filter.KindBoolean || v.Bool() != tc.want) {
			t.Errorf("raw %v: value = %v", tc.raw, v)
		}
	}
}

func TestToRequest_InvalidNumberIsAtomic(t *testing.T) {
	sch := makeSchema(t, map[string]field.Type{
		"Quantity": field.Number,
		"UF":       field.String,
	})
	for _, raw := range []any{"abc", "0", "-3", "NaN", "Inf", "   ", 0, -1.5} {
		s := New(request.DefaultLimits())
		s.SetQuery("cnpj")
		s.SetValue("UF", "SP")
		s.SetValue("Quantity", raw)

		req, err := s.ToRequest(sch, 10)
		if !errors.Is(err, domain.ErrInvalidNumber) {
			t.Errorf("raw %#v: err = %v, want ErrInvalidNumber", raw, err)
			continue
		}
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != "Quantity" {
			t.Errorf("raw %#v: offending field not identified: %v", raw, err)
		}
		if !req.IsZero() {
			t.Errorf("raw %#v: partial request returned: %v", raw, req)
		}
	}
}

func TestToRequest_FirstOffendingFieldInNameOrder(t *testing.T) {
	sch := makeSchema(t, map[string]field.Type{"B": field.Number, "A": field.Number})
	s := New(request.DefaultLimits())
	s.SetValue("B", "x")
	s.SetValue("A", "y")

	_, err := s.ToRequest(sch, 0)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "A" {
		t.Fatalf("err = %v, want field A", err)
	}
}

func TestToRequest_NumberAndStringCoercion(t *testing.T) {
	sch := makeSchema(t, map[string]field.Type{
		"Quantity": field.Number,
		"Cidade":   field.String,
		"Data":     field.Date,
	})
	s := New(request.DefaultLimits())
	s.SetValue("Quantity", " 12.5 ")
	s.SetValue("Cidade", "  São Paulo ")
	s.SetValue("Data", "   ")

	req, err := s.ToRequest(sch, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := req.Filters()
	if f["Quantity"].Num() != 12.5 {
		t.Errorf("Quantity = %v", f["Quantity"])
	}
	if f["Cidade"].Str() != "São Paulo" {
		t.Errorf("Cidade = %q", f["Cidade"].Str())
	}
	if _, ok := f["Data"]; ok {
		t.Error("whitespace-only date should be dropped")
	}
}

func TestToRequest_EmptyQueryForAnySchema(t *testing.T) {
	schemas := []domschema.Schema{
		domschema.Empty(),
		ufContribuinte(t),
		makeSchema(t, map[string]field.Type{"N": field.Number}),
	}
	for i, sch := range schemas {
		s := New(request.DefaultLimits())
		s.SetQuery("   ")
		s.SetValue("UF", "")
		if _, err := s.ToRequest(sch, 0); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("schema %d: err = %v, want ErrEmptyQuery", i, err)
		}
	}
}

func TestToRequest_UnknownFieldUsesNativeKind(t *testing.T) {
	s := New(request.DefaultLimits())
	s.SetValue("Contribuinte", true)
	s.SetValue("UF", " SP ")
	s.SetValue("Quantity", 3.0)

	req, err := s.ToRequest(domschema.Empty(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := req.Filters()
	if !f["Contribuinte"].Bool() || f["UF"].Str() != "SP" || f["Quantity"].Num() != 3 {
		t.Errorf("filters = %v", f)
	}
}

func TestToRequest_Limit(t *testing.T) {
	s := New(request.Limits{Default: 50, Max: 500})
	s.SetQuery("q")

	req, _ := s.ToRequest(domschema.Empty(), 0)
	if req.Limit() != 50 {
		t.Errorf("default limit = %d", req.Limit())
	}

	s.SetLimit(120)
	req, _ = s.ToRequest(domschema.Empty(), 0)
	if req.Limit() != 120 {
		t.Errorf("state limit = %d", req.Limit())
	}

	req, _ = s.ToRequest(domschema.Empty(), 9999)
	if req.Limit() != 500 {
		t.Errorf("explicit limit not clamped: %d", req.Limit())
	}
}

func TestToExportRequest_AllowsEmpty(t *testing.T) {
	s := New(request.DefaultLimits())
	e, err := s.ToExportRequest(domschema.Empty(), domexport.CSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Format() != domexport.CSV || len(e.Filters()) != 0 {
		t.Errorf("export = %+v", e)
	}

	s.SetValue("Quantity", "-1")
	sch := makeSchema(t, map[string]field.Type{"Quantity": field.Number})
	if _, err := s.ToExportRequest(sch, domexport.XLSX); !errors.Is(err, domain.ErrInvalidNumber) {
		t.Errorf("err = %v, want ErrInvalidNumber", err)
	}
}

func TestApplyAndClear(t *testing.T) {
	req, _ := request.New("cnpj", map[string]filter.Value{
		"UF":       filter.String("RJ"),
		"Quantity": filter.Number(3),
	}, 100, request.DefaultLimits())

	s := New(request.DefaultLimits())
	s.SetValue("Old", "x")
	s.Apply(req)

	snap := s.Snapshot()
	if snap.Query != "cnpj" || snap.Limit != 100 {
		t.Errorf("snapshot = %+v", snap)
	}
	if _, ok := snap.Values["Old"]; ok {
		t.Error("Apply should replace previous values")
	}

	back, err := s.ToRequest(domschema.Empty(), 0)
	if err != nil {
		t.Fatalf("ToRequest after Apply: %v", err)
	}
	if !back.Equal(req) {
		t.Errorf("round trip: got %v, want %v", back, req)
	}

	s.Clear()
	snap = s.Snapshot()
	if snap.Query != "" || len(snap.Values) != 0 || snap.Limit != request.DefaultLimit {
		t.Errorf("after Clear: %+v", snap)
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	s := New(request.DefaultLimits())
	s.SetValue("UF", "SP")
	snap := s.Snapshot()
	snap.Values["UF"] = "RJ"
	if s.RawActive()["UF"] != "SP" {
		t.Error("snapshot aliased state")
	}

	s.SetValue("UF", nil)
	if len(s.RawActive()) != 0 {
		t.Error("SetValue(nil) should remove the entry")
	}
}
