package servers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/fhirbootcamp/api/internal/platform/fhir"
)

// Pinger probes a FHIR base URL for its capability statement.
type Pinger interface {
	Capability(ctx context.Context, baseURL string) (*fhir.CapabilityResult, error)
}

type Service struct {
	repo     ServerRepository
	settings *SettingsStore
	pinger   Pinger

	localBaseURL  string
	publicBaseURL string
}

func NewService(repo ServerRepository, settings *SettingsStore, pinger Pinger, localBaseURL, publicBaseURL string) *Service {
	return &Service{
		repo:          repo,
		settings:      settings,
		pinger:        pinger,
		localBaseURL:  localBaseURL,
		publicBaseURL: publicBaseURL,
	}
}

func (s *Service) RegisterServer(ctx context.Context, srv *FhirServer) error {
	if srv.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := validateBaseURL(srv.BaseURL); err != nil {
		return err
	}
	return s.repo.Create(ctx, srv)
}

func (s *Service) ListServers(ctx context.Context) ([]*FhirServer, error) {
	return s.repo.List(ctx)
}

// Ping probes baseURL and never returns an error: upstream and transport
// failures become a structured result so the client can render the message.
func (s *Service) Ping(ctx context.Context, baseURL string) PingResult {
	if err := validateBaseURL(baseURL); err != nil {
		return PingResult{Success: false, Message: err.Error()}
	}

	cap, err := s.pinger.Capability(ctx, strings.TrimRight(baseURL, "/"))
	if err != nil {
		return PingResult{Success: false, Message: err.Error()}
	}

	return PingResult{
		Success:     true,
		FHIRVersion: cap.FHIRVersion,
		ServerName:  cap.ServerName,
		LatencyMs:   cap.LatencyMs,
	}
}

// Settings returns the current environment preference.
func (s *Service) Settings() EnvironmentSettings {
	return s.settings.Get()
}

// UpdateSettings persists the environment preference.
func (s *Service) UpdateSettings(settings EnvironmentSettings) error {
	return s.settings.Set(settings)
}

// ActiveBaseURL resolves the FHIR base URL labs should target, honoring the
// persisted environment toggle.
func (s *Service) ActiveBaseURL() string {
	if s.settings.Get().UseLocalServer {
		return s.localBaseURL
	}
	return s.publicBaseURL
}

func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("baseUrl is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid baseUrl: %s", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("baseUrl must use http or https")
	}
	return nil
}
