package chatbot

import "context"

// ComponentStatus represents the status of a backing component
type ComponentStatus string

const (
	StatusUp   ComponentStatus = "up"
	StatusDown ComponentStatus = "down"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus represents system health status
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
}

type SystemService struct {
	components map[string]HealthChecker
}

func NewSystemService(components map[string]HealthChecker) *SystemService {
	return &SystemService{components: components}
}

// CheckHealth pings every component; the system is unhealthy if any is down
func (s *SystemService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     StatusHealthy,
		Components: make(map[string]ComponentStatus, len(s.components)),
	}

	for name, checker := range s.components {
		if err := checker.Ping(ctx); err != nil {
			status.Components[name] = StatusDown
			status.Status = StatusUnhealthy
			continue
		}
		status.Components[name] = StatusUp
	}

	return status
}
