package usecases

import (
	"context"
	"strings"
	"sync"
	"time"

	"xrl-config-agent/internal/application/dispatch"
	"xrl-config-agent/internal/domain/entities"
	"xrl-config-agent/internal/domain/errors"
	"xrl-config-agent/internal/domain/interfaces"
	"xrl-config-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

// ApplyOperationInput은 유스케이스의 입력 파라미터입니다
type ApplyOperationInput struct {
	Op    string
	Path  string
	Value string
}

// ApplyOperationOutput은 유스케이스의 출력 결과입니다
type ApplyOperationOutput struct {
	Operation entities.Operation
	// Route is empty when no route handled the operation
	Route    string
	Status   entities.OperationStatus
	Duration time.Duration
}

// ApplyOperationUseCase selects the single route for an operation and runs it.
// Operations are applied one at a time.
type ApplyOperationUseCase struct {
	mu       sync.Mutex
	routes   *dispatch.Table
	journal  interfaces.OperationJournal
	observer interfaces.OperationObserver
	clock    interfaces.Clock
	logger   *logrus.Logger
}

// NewApplyOperationUseCase는 새로운 ApplyOperationUseCase를 생성합니다
func NewApplyOperationUseCase(
	routes *dispatch.Table,
	journal interfaces.OperationJournal,
	observer interfaces.OperationObserver,
	clock interfaces.Clock,
	logger *logrus.Logger,
) *ApplyOperationUseCase {
	return &ApplyOperationUseCase{
		routes:   routes,
		journal:  journal,
		observer: observer,
		clock:    clock,
		logger:   logger,
	}
}

// Execute applies one operation. Operations no route handles succeed without any tool call.
// The output is returned alongside the error when the routine fails.
func (uc *ApplyOperationUseCase) Execute(ctx context.Context, input ApplyOperationInput) (*ApplyOperationOutput, error) {
	op, err := entities.NewOperation(input.Op, input.Path, input.Value)
	if err != nil {
		metrics.RecordError(errorLabel(err))
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	startedAt := uc.clock.Now()
	log := uc.logger.WithFields(logrus.Fields{
		"op":    op.Kind,
		"path":  op.Path,
		"value": op.Value,
	})

	output := &ApplyOperationOutput{Operation: op}

	route, ok := uc.routes.Match(op)
	if !ok {
		log.Debug("No route for operation, ignoring")
		output.Status = entities.OperationIgnored
		uc.finish(ctx, output, startedAt, nil)
		return output, nil
	}

	output.Route = route.Name
	log = log.WithField("route", route.Name)
	log.Info("Applying operation")

	// 요청이 끊겨도 루틴은 끝까지 실행한다. 각 호출은 COMMAND_TIMEOUT으로 제한된다
	err = route.Apply(context.WithoutCancel(ctx), op)
	if err != nil {
		log.WithFields(logrus.Fields{
			"error_type": errors.TypeOf(err),
			"output":     errors.OutputOf(err),
		}).WithError(err).Error("Operation failed")
		metrics.RecordError(errorLabel(err))
		output.Status = entities.OperationFailed
	} else {
		log.Info("Operation applied")
		output.Status = entities.OperationSucceeded
	}

	uc.finish(ctx, output, startedAt, err)
	return output, err
}

// finish records metrics, journal and observer state for a completed operation
func (uc *ApplyOperationUseCase) finish(ctx context.Context, output *ApplyOperationOutput, startedAt time.Time, err error) {
	output.Duration = uc.clock.Now().Sub(startedAt)

	record := entities.OperationRecord{
		Operation: output.Operation,
		Route:     output.Route,
		Status:    output.Status,
		StartedAt: startedAt,
		Duration:  output.Duration,
	}
	if err != nil {
		record.ErrorType = string(errors.TypeOf(err))
		record.Output = errors.OutputOf(err)
		record.FailedStep = errors.StepOf(err)
	}

	route := output.Route
	if route == "" {
		route = "none"
	}
	metrics.RecordOperation(string(output.Operation.Kind), route, string(output.Status), output.Duration.Seconds())

	if uc.journal.Enabled() {
		jerr := uc.journal.Record(context.WithoutCancel(ctx), record)
		if jerr != nil {
			uc.logger.WithError(jerr).Warn("Failed to journal operation")
		}
		metrics.RecordJournalWrite(jerr == nil)
		if uc.observer != nil {
			uc.observer.ObserveJournalWrite(jerr)
		}
	}

	if uc.observer != nil {
		uc.observer.ObserveOperation(record)
	}
}

func errorLabel(err error) string {
	if t := errors.TypeOf(err); t != "" {
		return strings.ToLower(string(t))
	}
	return "unknown"
}
