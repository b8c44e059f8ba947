package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the engine answers but the metadata store does not.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentDatabase = "database"
	ComponentMetadata = "metadata"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db       Pinger
	metadata Pinger
}

// New creates a Service. metadata can be nil.
func New(db, metadata Pinger) *Service {
	return &Service{db: db, metadata: metadata}
}

// Check pings every component. Without the engine nothing works, so its
// failure makes the report unhealthy; a metadata failure only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{ComponentDatabase: checkComponent(ctx, s.db)}
	if s.metadata != nil {
		checks[ComponentMetadata] = checkComponent(ctx, s.metadata)
	}

	status := Healthy
	switch {
	case checks[ComponentDatabase] == CheckError:
		status = Unhealthy
	case checks[ComponentMetadata] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func checkComponent(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
