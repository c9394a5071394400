package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 설정 오퍼레이션 관련 메트릭
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xrl_agent_operations_total",
			Help: "Total number of configuration operations received",
		},
		[]string{"kind", "route", "status"}, // status: succeeded, failed, ignored
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xrl_agent_operation_duration_seconds",
			Help:    "Time spent applying each configuration operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)

	// call_xrl 호출 관련 메트릭
	XRLCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xrl_agent_xrl_calls_total",
			Help: "Total number of call_xrl invocations",
		},
		[]string{"method", "status"}, // status: success, failed, timeout
	)

	XRLCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xrl_agent_xrl_call_duration_seconds",
			Help:    "Time spent in each call_xrl invocation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	// 저널 관련 메트릭
	JournalWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xrl_agent_journal_writes_total",
			Help: "Total number of operation journal writes",
		},
		[]string{"status"},
	)

	JournalConnectBackoffLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xrl_agent_journal_connect_backoff_level",
			Help: "Current journal connect backoff level (0 = connected or not retrying)",
		},
	)

	// 에러 메트릭
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xrl_agent_errors_total",
			Help: "Total number of errors encountered",
		},
		[]string{"error_type"}, // validation, transaction_start, step, commit, timeout, system
	)

	// 시스템 정보
	AgentInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "xrl_agent_info",
			Help: "Agent information",
		},
		[]string{"version", "netns", "compensate"},
	)
)

// RecordOperation은 오퍼레이션 처리 결과와 시간을 기록합니다
func RecordOperation(kind, route, status string, duration float64) {
	OperationsTotal.WithLabelValues(kind, route, status).Inc()
	OperationDuration.WithLabelValues(route, status).Observe(duration)
}

// RecordXRLCall은 call_xrl 호출 결과와 시간을 기록합니다
func RecordXRLCall(method, status string, duration float64) {
	XRLCallsTotal.WithLabelValues(method, status).Inc()
	XRLCallDuration.WithLabelValues(method).Observe(duration)
}

// RecordJournalWrite는 저널 기록 결과를 기록합니다
func RecordJournalWrite(success bool) {
	if success {
		JournalWritesTotal.WithLabelValues("success").Inc()
	} else {
		JournalWritesTotal.WithLabelValues("failed").Inc()
	}
}

// SetJournalConnectBackoffLevel은 저널 연결 재시도 백오프 레벨을 설정합니다
func SetJournalConnectBackoffLevel(level float64) {
	JournalConnectBackoffLevel.Set(level)
}

// RecordError는 에러 발생을 기록합니다
func RecordError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetAgentInfo는 에이전트 정보를 설정합니다
func SetAgentInfo(version, netns string, compensate bool) {
	c := "false"
	if compensate {
		c = "true"
	}
	AgentInfo.WithLabelValues(version, netns, c).Set(1)
}
