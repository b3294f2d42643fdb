package filter

import (
	"encoding/json"
	"testing"
)

func TestValue_JSONNativeTypes(t *testing.T) {
	m := map[string]Value{
		"UF":           String("SP"),
		"Quantity":     Number(5),
		"Contribuinte": Bool(true),
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Contribuinte":true,"Quantity":5,"UF":"SP"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	var back map[string]Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for k, v := range m {
		if !back[k].Equal(v) {
			t.Errorf("%s: got %v, want %v", k, back[k], v)
		}
	}
}

func TestValue_Text(t *testing.T) {
	if got := Number(12.5).Text(); got != "12.5" {
		t.Errorf("Number.Text() = %q", got)
	}
	if got := Bool(false).Text(); got != "false" {
		t.Errorf("Bool.Text() = %q", got)
	}
	if got := (Value{}).Text(); got != "" {
		t.Errorf("zero Text() = %q", got)
	}
}

func TestValue_UnmarshalNull(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte("null"), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsValid() {
		t.Error("null should decode to an invalid Value")
	}
}
