package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"xrl-config-agent/internal/domain/entities"
	"xrl-config-agent/internal/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// HealthService provides health check functionality based on dispatched operation outcomes
type HealthService struct {
	mu                  sync.RWMutex
	clock               interfaces.Clock
	logger              *logrus.Logger
	startTime           time.Time
	failureThreshold    int
	lastOperation       *entities.OperationRecord
	succeeded           int64
	failed              int64
	ignored             int64
	consecutiveFailures int
	journalEnabled      bool
	journalError        error
}

var _ interfaces.OperationObserver = (*HealthService)(nil)

// HealthStatus represents health check status
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the health check response struct
type HealthResponse struct {
	Status     HealthStatus           `json:"status"`
	Timestamp  string                 `json:"timestamp"`
	Components map[string]interface{} `json:"components"`
	Statistics map[string]interface{} `json:"statistics"`
}

// NewHealthService creates a new HealthService.
// failureThreshold consecutive failed operations mark the agent unhealthy.
func NewHealthService(clock interfaces.Clock, logger *logrus.Logger, failureThreshold int) *HealthService {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	return &HealthService{
		clock:            clock,
		logger:           logger,
		startTime:        clock.Now(),
		failureThreshold: failureThreshold,
	}
}

// ObserveOperation updates counters from a finished operation
func (h *HealthService) ObserveOperation(record entities.OperationRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch record.Status {
	case entities.OperationSucceeded:
		h.succeeded++
		h.consecutiveFailures = 0
	case entities.OperationFailed:
		h.failed++
		h.consecutiveFailures++
	case entities.OperationIgnored:
		h.ignored++
		// ignored operations never reach call_xrl
		return
	}
	h.lastOperation = &record
}

// SetJournalStatus records whether the operation journal is enabled and reachable
func (h *HealthService) SetJournalStatus(enabled bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.journalEnabled = enabled
	h.journalError = err
}

// ObserveJournalWrite marks the journal erroring until the next successful write
func (h *HealthService) ObserveJournalWrite(err error) {
	h.SetJournalStatus(true, err)
}

// ServeHTTP handles the HTTP health check endpoint
func (h *HealthService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := h.buildHealthResponse()

	// Set HTTP status code based on health status
	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("failed to encode health check response")
	}
}

// buildHealthResponse constructs the health check response
func (h *HealthService) buildHealthResponse() HealthResponse {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.clock.Now()

	callXRL := map[string]interface{}{
		"consecutive_failures": h.consecutiveFailures,
	}
	if h.lastOperation != nil {
		callXRL["last_route"] = h.lastOperation.Route
		callXRL["last_status"] = h.lastOperation.Status
		callXRL["last_at"] = h.lastOperation.StartedAt.Format(time.RFC3339)
		if h.lastOperation.Status == entities.OperationFailed {
			callXRL["last_failed_step"] = h.lastOperation.FailedStep
			callXRL["last_error_type"] = h.lastOperation.ErrorType
		}
	}

	components := map[string]interface{}{
		"call_xrl": callXRL,
		"journal": map[string]interface{}{
			"enabled": h.journalEnabled,
			"error":   h.formatError(h.journalError),
		},
	}

	statistics := map[string]interface{}{
		"succeeded_operations": h.succeeded,
		"failed_operations":    h.failed,
		"ignored_operations":   h.ignored,
		"uptime":               h.formatUptime(now.Sub(h.startTime)),
	}

	return HealthResponse{
		Status:     h.determineOverallStatus(),
		Timestamp:  now.Format(time.RFC3339),
		Components: components,
		Statistics: statistics,
	}
}

// determineOverallStatus determines the overall health status
func (h *HealthService) determineOverallStatus() HealthStatus {
	if h.consecutiveFailures >= h.failureThreshold {
		return StatusUnhealthy
	}

	if h.journalEnabled && h.journalError != nil {
		return StatusDegraded
	}

	// If failed operations are 50% or more, status is degraded
	if h.failed > 0 {
		failureRate := float64(h.failed) / float64(h.succeeded+h.failed)
		if failureRate >= 0.5 {
			return StatusDegraded
		}
	}

	return StatusHealthy
}

// formatError formats an error to string
func (h *HealthService) formatError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// formatUptime formats uptime duration to human-readable format
func (h *HealthService) formatUptime(duration time.Duration) string {
	days := int(duration.Hours()) / 24
	hours := int(duration.Hours()) % 24
	minutes := int(duration.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd%dh%dm", days, hours, minutes)
	} else if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	} else {
		return fmt.Sprintf("%dm", minutes)
	}
}
