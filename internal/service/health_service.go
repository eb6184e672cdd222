package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"nexus-capture/internal/domain"
)

const healthTimeout = 5 * time.Second

type healthService struct {
	baseURL string
	client  *http.Client
}

// NewHealthService checks {baseURL}/api/health.
func NewHealthService(baseURL string) domain.HealthService {
	return &healthService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: healthTimeout},
	}
}

func (s *healthService) Check(ctx context.Context) domain.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/health", nil)
	if err != nil {
		return domain.HealthStatus{Online: false, Error: err.Error()}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return domain.HealthStatus{Online: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return domain.HealthStatus{Online: false, Error: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	return domain.HealthStatus{Online: true}
}
