package health

import "context"

// Status is the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an external provider is failing; the pipeline still
	// answers, in degraded form.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult is an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks across the store and the external model
// providers.
type Service struct {
	db        DBPinger
	embedding ProviderChecker
	model     ProviderChecker
}

// New creates a Service. embedding and model can be nil.
func New(db DBPinger, embedding, model ProviderChecker) *Service {
	return &Service{db: db, embedding: embedding, model: model}
}

// Check probes every component. A database failure makes the service
// unhealthy; provider failures only degrade it, since answering falls back
// rather than erroring.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	for name, c := range map[string]ProviderChecker{
		"embedding": s.embedding,
		"model":     s.model,
	} {
		if c == nil {
			continue
		}
		if err := c.HealthCheck(ctx); err != nil {
			checks[name] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks[name] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
