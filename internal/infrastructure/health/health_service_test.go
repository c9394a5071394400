package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"xrl-config-agent/internal/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newTestHealthService(threshold int) (*HealthService, *fixedClock) {
	clock := &fixedClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewHealthService(clock, logger, threshold), clock
}

func record(status entities.OperationStatus) entities.OperationRecord {
	return entities.OperationRecord{
		Operation: entities.Operation{Kind: entities.OperationAdd, Path: "/vlan/id", Value: "10"},
		Route:     "create_vlan",
		Status:    status,
		StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func serve(t *testing.T, h *HealthService) (int, HealthResponse) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthService_Status(t *testing.T) {
	tests := []struct {
		name       string
		observe    []entities.OperationStatus
		journalErr error
		wantStatus HealthStatus
		wantCode   int
	}{
		{
			name:       "no operations yet",
			wantStatus: StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name:       "mostly successful",
			observe:    []entities.OperationStatus{entities.OperationSucceeded, entities.OperationFailed, entities.OperationSucceeded},
			wantStatus: StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name:       "half failed is degraded",
			observe:    []entities.OperationStatus{entities.OperationFailed, entities.OperationSucceeded},
			wantStatus: StatusDegraded,
			wantCode:   http.StatusOK,
		},
		{
			name: "consecutive failures are unhealthy",
			observe: []entities.OperationStatus{
				entities.OperationSucceeded, entities.OperationFailed, entities.OperationFailed, entities.OperationFailed,
			},
			wantStatus: StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name: "ignored operations do not reset the failure streak",
			observe: []entities.OperationStatus{
				entities.OperationFailed, entities.OperationIgnored, entities.OperationFailed, entities.OperationFailed,
			},
			wantStatus: StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "journal error is degraded",
			observe:    []entities.OperationStatus{entities.OperationSucceeded},
			journalErr: errors.New("connection refused"),
			wantStatus: StatusDegraded,
			wantCode:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHealthService(3)
			for _, s := range tt.observe {
				h.ObserveOperation(record(s))
			}
			if tt.journalErr != nil {
				h.SetJournalStatus(true, tt.journalErr)
			}

			code, body := serve(t, h)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body.Status)
		})
	}
}

func TestHealthService_Body(t *testing.T) {
	h, clock := newTestHealthService(3)
	clock.now = clock.now.Add(90 * time.Minute)

	failed := record(entities.OperationFailed)
	failed.FailedStep = "commit_transaction"
	failed.ErrorType = "COMMIT"
	h.ObserveOperation(failed)

	_, body := serve(t, h)

	callXRL := body.Components["call_xrl"].(map[string]interface{})
	assert.Equal(t, "commit_transaction", callXRL["last_failed_step"])
	assert.Equal(t, "create_vlan", callXRL["last_route"])
	assert.Equal(t, float64(1), callXRL["consecutive_failures"])
	assert.Equal(t, float64(1), body.Statistics["failed_operations"])
	assert.Equal(t, "1h30m", body.Statistics["uptime"])
}

func TestHealthService_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHealthService(3)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthService_ObserveJournalWrite(t *testing.T) {
	h, _ := newTestHealthService(3)
	h.SetJournalStatus(true, nil)

	h.ObserveJournalWrite(errors.New("gone away"))
	_, body := serve(t, h)
	assert.Equal(t, StatusDegraded, body.Status)

	h.ObserveJournalWrite(nil)
	_, body = serve(t, h)
	assert.Equal(t, StatusHealthy, body.Status)
}
