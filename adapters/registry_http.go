package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"myremoting/domain"
	"myremoting/helpers"
	"myremoting/interfaces"
	"myremoting/service"
)

// requestTimeout bounds every registry call on top of the caller's context.
const requestTimeout = 5 * time.Second

// ServiceRegistryHTTP creates an interfaces.ServiceRegistry that talks to myregistry over HTTP:
// POST baseURL/v1/publish, POST baseURL/v1/renew/{entry_id}, POST baseURL/v1/unpublish/{entry_id} and
// GET baseURL/v1/entries. Panics on empty baseURL or nil client.
//
// Parameters: baseURL: registry base URL (e.g. http://myregistry:8080), no trailing slash; client:
// HTTP client (timeout recommended; main uses 10s).
//
// Returns: interfaces.ServiceRegistry (*serviceRegistryHTTP).
//
// Called from cmd wiring of applications that consume a shared registry.
func ServiceRegistryHTTP(baseURL string, client *http.Client) interfaces.ServiceRegistry {
	return &serviceRegistryHTTP{
		baseURL: helpers.StrPanic(baseURL, "adapters.registry_http.go: baseURL is required"),
		client:  helpers.NilPanic(client, "adapters.registry_http.go: http client is required"),
	}
}

// serviceRegistryHTTP implements interfaces.ServiceRegistry. Errors answered by the registry in the
// {"error":{code,message}} envelope are returned as *service.MyError with the same code.
type serviceRegistryHTTP struct {
	baseURL string
	client  *http.Client
}

type publishRequest struct {
	ServiceType string            `json:"service_type"`
	Qualifier   string            `json:"qualifier"`
	Properties  map[string]string `json:"properties"`
	LeaseMs     int64             `json:"lease_ms"`
}

type publishResponse struct {
	EntryID string `json:"entry_id"`
}

type entriesResponse struct {
	Entries []entryInfo `json:"entries"`
}

type entryInfo struct {
	EntryID     string            `json:"entry_id"`
	ServiceType string            `json:"service_type"`
	Qualifier   string            `json:"qualifier"`
	Properties  map[string]string `json:"properties"`
	LeaseMs     int64             `json:"lease_ms"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

type errResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Publish performs POST baseURL/v1/publish.
//
// Returns: (entryID, nil) on 200; ("", *service.MyError) when the registry answered an error envelope;
// ("", error) on network or decode failure.
//
// Called from service.ServiceRegistryClient on Register and on re-publish.
func (r *serviceRegistryHTTP) Publish(ctx context.Context, serviceType, qualifier string, properties domain.ServiceProperties, lease time.Duration) (string, error) {
	body, err := json.Marshal(publishRequest{
		ServiceType: serviceType,
		Qualifier:   qualifier,
		Properties:  properties,
		LeaseMs:     lease.Milliseconds(),
	})
	if err != nil {
		return "", service.NewBadParameterError("encode publish request", err)
	}
	var resp publishResponse
	if err := r.do(ctx, http.MethodPost, "/v1/publish", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.EntryID == "" {
		return "", fmt.Errorf("registry publish response missing entry_id")
	}
	return resp.EntryID, nil
}

// Renew performs POST baseURL/v1/renew/{entry_id}. A 404 comes back as entity_not_found, which makes
// the registry client re-publish.
func (r *serviceRegistryHTTP) Renew(ctx context.Context, entryID string) error {
	return r.do(ctx, http.MethodPost, "/v1/renew/"+url.PathEscape(entryID), nil, nil)
}

// Unpublish performs POST baseURL/v1/unpublish/{entry_id}.
func (r *serviceRegistryHTTP) Unpublish(ctx context.Context, entryID string) error {
	return r.do(ctx, http.MethodPost, "/v1/unpublish/"+url.PathEscape(entryID), nil, nil)
}

// List performs GET baseURL/v1/entries?service_type=&qualifier= and maps the answer to domain entries.
func (r *serviceRegistryHTTP) List(ctx context.Context, serviceType, qualifier string) ([]domain.RegistryEntry, error) {
	q := url.Values{}
	q.Set("service_type", serviceType)
	if qualifier != "" {
		q.Set("qualifier", qualifier)
	}
	var resp entriesResponse
	if err := r.do(ctx, http.MethodGet, "/v1/entries?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Entries == nil {
		return nil, fmt.Errorf("registry response missing entries field")
	}
	out := make([]domain.RegistryEntry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		out = append(out, domain.RegistryEntry{
			ID:            e.EntryID,
			ServiceType:   e.ServiceType,
			Qualifier:     e.Qualifier,
			Properties:    domain.ServiceProperties(e.Properties),
			LeaseDuration: time.Duration(e.LeaseMs) * time.Millisecond,
			ExpiresAt:     e.ExpiresAt,
		})
	}
	return out, nil
}

func (r *serviceRegistryHTTP) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return registryError(method, path, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode registry response of %s %s: %w", method, path, err)
	}
	return nil
}

// registryError decodes the error envelope. Without one, 404 still maps to entity_not_found.
func registryError(method, path string, status int, data []byte) error {
	var env errResponse
	if err := json.Unmarshal(data, &env); err == nil && env.Error != nil && env.Error.Code != "" {
		return service.NewMyError(env.Error.Code, env.Error.Message, nil)
	}
	if status == http.StatusNotFound {
		return service.NewEntityNotFoundError(fmt.Sprintf("registry %s %s returned 404", method, path), nil)
	}
	return fmt.Errorf("registry %s %s returned %d", method, path, status)
}
