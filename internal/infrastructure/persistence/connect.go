package persistence

import (
	"context"
	"math"
	"time"

	"xrl-config-agent/internal/domain/errors"
	"xrl-config-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// ExponentialBackoff는 저널 연결 재시도 간격을 계산합니다
type ExponentialBackoff struct {
	baseInterval time.Duration
	maxInterval  time.Duration
	multiplier   float64
	level        int
}

// NewExponentialBackoff는 새로운 지수 백오프를 생성합니다
func NewExponentialBackoff(baseInterval, maxInterval time.Duration, multiplier float64) *ExponentialBackoff {
	if multiplier <= 1 {
		multiplier = 2.0
	}
	return &ExponentialBackoff{
		baseInterval: baseInterval,
		maxInterval:  maxInterval,
		multiplier:   multiplier,
	}
}

// Next는 실패 한 번을 반영하고 다음 대기 시간을 반환합니다
func (b *ExponentialBackoff) Next() time.Duration {
	b.level++
	metrics.SetJournalConnectBackoffLevel(float64(b.level))

	next := time.Duration(float64(b.baseInterval) * math.Pow(b.multiplier, float64(b.level-1)))
	if next > b.maxInterval {
		next = b.maxInterval
	}
	return next
}

// Reset은 백오프 레벨을 0으로 되돌립니다
func (b *ExponentialBackoff) Reset() {
	b.level = 0
	metrics.SetJournalConnectBackoffLevel(0)
}

// ConnectWithRetry runs connect up to attempts times, waiting out the backoff in between.
// The last connect error is returned wrapped as a system error.
func ConnectWithRetry(ctx context.Context, attempts int, backoff *ExponentialBackoff, logger *logrus.Logger, connect func(context.Context) error) error {
	defer backoff.Reset()

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = connect(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := backoff.Next()
		logger.WithFields(logrus.Fields{
			"attempt":    attempt,
			"next_retry": delay,
		}).WithError(err).Warn("Journal connect failed, retrying")

		select {
		case <-ctx.Done():
			return errors.NewSystemError("journal connect cancelled", ctx.Err())
		case <-time.After(delay):
		}
	}
	return errors.NewSystemError("journal connect attempts exhausted", err)
}
