package fhir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UpstreamError carries a non-2xx response from an external FHIR server so
// handlers can surface the upstream status and body verbatim.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to external FHIR servers over their standard REST interface.
// Every call is a single attempt; retry policy belongs to the caller.
type Client struct {
	http *http.Client
}

// NewClient creates a Client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// CapabilityResult summarizes a server's CapabilityStatement.
type CapabilityResult struct {
	FHIRVersion string `json:"fhirVersion"`
	ServerName  string `json:"serverName,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	LatencyMs   int64  `json:"latencyMs"`
}

// Capability fetches {base}/metadata and reads the CapabilityStatement.
func (c *Client) Capability(ctx context.Context, baseURL string) (*CapabilityResult, error) {
	start := time.Now()
	body, err := c.get(ctx, strings.TrimSuffix(baseURL, "/")+"/metadata")
	if err != nil {
		return nil, err
	}

	var stmt struct {
		ResourceType string `json:"resourceType"`
		FHIRVersion  string `json:"fhirVersion"`
		Publisher    string `json:"publisher"`
		Software     struct {
			Name string `json:"name"`
		} `json:"software"`
	}
	if err := json.Unmarshal(body, &stmt); err != nil {
		return nil, fmt.Errorf("decoding capability statement: %w", err)
	}
	if stmt.ResourceType != "CapabilityStatement" {
		return nil, fmt.Errorf("expected CapabilityStatement, got %q", stmt.ResourceType)
	}

	return &CapabilityResult{
		FHIRVersion: stmt.FHIRVersion,
		ServerName:  stmt.Software.Name,
		Publisher:   stmt.Publisher,
		LatencyMs:   time.Since(start).Milliseconds(),
	}, nil
}

// SearchResult is a flattened FHIR search response.
type SearchResult struct {
	Total     int
	Resources []map[string]interface{}
}

// SearchResources runs GET {base}/{type}?{params} and collects the entry
// resources from the returned searchset Bundle.
func (c *Client) SearchResources(ctx context.Context, baseURL, resourceType string, params url.Values) (*SearchResult, error) {
	u := strings.TrimSuffix(baseURL, "/") + "/" + resourceType
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var bundle struct {
		ResourceType string `json:"resourceType"`
		Total        *int   `json:"total"`
		Entry        []struct {
			Resource map[string]interface{} `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, fmt.Errorf("decoding search bundle: %w", err)
	}

	result := &SearchResult{}
	for _, e := range bundle.Entry {
		if e.Resource != nil {
			result.Resources = append(result.Resources, e.Resource)
		}
	}
	if bundle.Total != nil {
		result.Total = *bundle.Total
	} else {
		result.Total = len(result.Resources)
	}
	return result, nil
}

// ReadResource runs GET {base}/{type}/{id}.
func (c *Client) ReadResource(ctx context.Context, baseURL, resourceType, id string) (map[string]interface{}, error) {
	body, err := c.get(ctx, strings.TrimSuffix(baseURL, "/")+"/"+resourceType+"/"+id)
	if err != nil {
		return nil, err
	}
	var resource map[string]interface{}
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("decoding resource: %w", err)
	}
	return resource, nil
}

// CreateResult describes a created resource.
type CreateResult struct {
	ID       string
	Location string
}

// CreateResource runs POST {base}/{type} with the resource body.
func (c *Client) CreateResource(ctx context.Context, baseURL, resourceType string, resource map[string]interface{}) (*CreateResult, error) {
	payload, err := json.Marshal(resource)
	if err != nil {
		return nil, fmt.Errorf("encoding resource: %w", err)
	}

	u := strings.TrimSuffix(baseURL, "/") + "/" + resourceType
	resp, err := c.post(ctx, u, payload)
	if err != nil {
		return nil, err
	}

	location := resp.header.Get("Location")
	id := extractIDFromLocation(location)
	if id == "" {
		// Some servers only return the id in the response body.
		var created struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(resp.body, &created); err == nil {
			id = created.ID
		}
	}
	return &CreateResult{ID: id, Location: location}, nil
}

// TransactionResult describes the outcome of a transaction Bundle POST.
type TransactionResult struct {
	CreatedIDs []string
	Locations  []string
}

// PostTransaction POSTs a transaction Bundle to the server base URL and
// extracts the created resource locations from entry[].response.location.
func (c *Client) PostTransaction(ctx context.Context, baseURL string, bundle map[string]interface{}) (*TransactionResult, error) {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("encoding bundle: %w", err)
	}

	resp, err := c.post(ctx, strings.TrimSuffix(baseURL, "/"), payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		ResourceType string `json:"resourceType"`
		Entry        []struct {
			Response *struct {
				Status   string `json:"status"`
				Location string `json:"location"`
			} `json:"response"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("decoding transaction response: %w", err)
	}

	result := &TransactionResult{}
	for _, e := range out.Entry {
		if e.Response == nil || e.Response.Location == "" {
			continue
		}
		result.Locations = append(result.Locations, e.Response.Location)
		if id := extractIDFromLocation(e.Response.Location); id != "" {
			result.CreatedIDs = append(result.CreatedIDs, id)
		}
	}
	return result, nil
}

// extractIDFromLocation pulls the logical id out of a FHIR Location header
// or response.location value, e.g. "Patient/123/_history/1" -> "123".
func extractIDFromLocation(location string) string {
	if location == "" {
		return ""
	}
	parts := strings.Split(strings.Trim(location, "/"), "/")
	for i, p := range parts {
		if p == "_history" && i >= 1 {
			return parts[i-1]
		}
	}
	if len(parts) >= 2 {
		return parts[len(parts)-1]
	}
	return ""
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/fhir+json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

func (c *Client) post(ctx context.Context, url string, payload []byte) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/fhir+json")
	req.Header.Set("Accept", "application/fhir+json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}
