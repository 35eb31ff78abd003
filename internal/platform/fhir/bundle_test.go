package fhir

import (
	"encoding/json"
	"testing"
)

func TestParseBundle(t *testing.T) {
	body := []byte(`{
		"resourceType": "Bundle",
		"type": "transaction",
		"entry": [
			{"resource": {"resourceType": "Patient", "name": [{"family": "Doe"}]},
			 "request": {"method": "POST", "url": "Patient"}},
			{"resource": {"resourceType": "Observation"}}
		]
	}`)

	bundle, err := ParseBundle(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Type != "transaction" {
		t.Errorf("expected type transaction, got %s", bundle.Type)
	}
	if len(bundle.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(bundle.Entries))
	}
	if bundle.Entries[0].ResourceType() != "Patient" {
		t.Errorf("expected Patient, got %s", bundle.Entries[0].ResourceType())
	}
	if bundle.Entries[0].Request == nil || bundle.Entries[0].Request.Method != "POST" {
		t.Error("expected request to be preserved")
	}
}

func TestParseBundle_NotABundle(t *testing.T) {
	_, err := ParseBundle([]byte(`{"resourceType": "Patient"}`))
	if err == nil {
		t.Fatal("expected error for non-Bundle resource")
	}
}

func TestParseBundle_MissingType(t *testing.T) {
	_, err := ParseBundle([]byte(`{"resourceType": "Bundle"}`))
	if err == nil {
		t.Fatal("expected error for missing bundle type")
	}
}

func TestParseBundle_InvalidJSON(t *testing.T) {
	_, err := ParseBundle([]byte(`{`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestBundle_ToMap_SynthesizesRequests(t *testing.T) {
	bundle := &Bundle{
		ResourceType: "Bundle",
		Type:         "transaction",
		Entries: []BundleEntry{
			{Resource: map[string]interface{}{"resourceType": "Patient"}},
		},
	}

	m := bundle.ToMap()
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out struct {
		Entry []struct {
			Request *BundleEntryRequest `json:"request"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Entry) != 1 || out.Entry[0].Request == nil {
		t.Fatal("expected synthesized request element")
	}
	if out.Entry[0].Request.Method != "POST" || out.Entry[0].Request.URL != "Patient" {
		t.Errorf("unexpected synthesized request: %+v", out.Entry[0].Request)
	}
}
