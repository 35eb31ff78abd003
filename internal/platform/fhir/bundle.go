package fhir

import (
	"encoding/json"
	"fmt"
)

// BundleEntryRequest represents the request details for an entry in a
// transaction Bundle.
type BundleEntryRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// BundleEntry represents a single entry in a client-supplied Bundle.
type BundleEntry struct {
	FullURL  string                 `json:"fullUrl,omitempty"`
	Resource map[string]interface{} `json:"resource,omitempty"`
	Request  *BundleEntryRequest    `json:"request,omitempty"`
}

// Bundle is the parsed representation of a client-supplied FHIR Bundle.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Entries      []BundleEntry `json:"entry,omitempty"`
}

// ParseBundle parses a raw JSON document into a Bundle and checks the
// minimal structure needed for forwarding: resourceType Bundle, a bundle
// type, and per-entry resources with a resourceType.
func ParseBundle(body []byte) (*Bundle, error) {
	var raw struct {
		ResourceType string `json:"resourceType"`
		Type         string `json:"type"`
		Entry        []struct {
			FullURL  string              `json:"fullUrl,omitempty"`
			Resource json.RawMessage     `json:"resource,omitempty"`
			Request  *BundleEntryRequest `json:"request,omitempty"`
		} `json:"entry,omitempty"`
	}

	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if raw.ResourceType != "Bundle" {
		return nil, fmt.Errorf("expected resourceType Bundle, got %q", raw.ResourceType)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("bundle type is required")
	}

	bundle := &Bundle{
		ResourceType: raw.ResourceType,
		Type:         raw.Type,
		Entries:      make([]BundleEntry, 0, len(raw.Entry)),
	}

	for i, e := range raw.Entry {
		entry := BundleEntry{FullURL: e.FullURL, Request: e.Request}
		if len(e.Resource) > 0 {
			var res map[string]interface{}
			if err := json.Unmarshal(e.Resource, &res); err != nil {
				return nil, fmt.Errorf("invalid resource in entry %d: %w", i, err)
			}
			entry.Resource = res
		}
		bundle.Entries = append(bundle.Entries, entry)
	}

	return bundle, nil
}

// ResourceType returns the resourceType of an entry's resource, or "".
func (e *BundleEntry) ResourceType() string {
	if e.Resource == nil {
		return ""
	}
	rt, _ := e.Resource["resourceType"].(string)
	return rt
}

// ToMap renders the bundle back into the generic map form used by Client.
func (b *Bundle) ToMap() map[string]interface{} {
	entries := make([]interface{}, 0, len(b.Entries))
	for _, e := range b.Entries {
		entry := map[string]interface{}{}
		if e.FullURL != "" {
			entry["fullUrl"] = e.FullURL
		}
		if e.Resource != nil {
			entry["resource"] = e.Resource
		}
		if e.Request != nil {
			entry["request"] = map[string]interface{}{
				"method": e.Request.Method,
				"url":    e.Request.URL,
			}
		} else if rt := e.ResourceType(); rt != "" {
			// Servers require a request element per entry in a transaction;
			// synthesize a POST when the client omitted it.
			entry["request"] = map[string]interface{}{
				"method": "POST",
				"url":    rt,
			}
		}
		entries = append(entries, entry)
	}
	return map[string]interface{}{
		"resourceType": "Bundle",
		"type":         b.Type,
		"entry":        entries,
	}
}
