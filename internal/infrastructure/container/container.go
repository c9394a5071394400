package container

import (
	"context"
	"net/http"
	"time"

	"xrl-config-agent/internal/application/dispatch"
	"xrl-config-agent/internal/application/usecases"
	"xrl-config-agent/internal/domain/interfaces"
	"xrl-config-agent/internal/domain/services"
	"xrl-config-agent/internal/infrastructure/adapters"
	"xrl-config-agent/internal/infrastructure/api"
	"xrl-config-agent/internal/infrastructure/config"
	"xrl-config-agent/internal/infrastructure/health"
	"xrl-config-agent/internal/infrastructure/persistence"
	"xrl-config-agent/internal/infrastructure/xrl"

	"github.com/sirupsen/logrus"
)

// Container는 의존성 주입을 관리하는 컨테이너입니다
type Container struct {
	config *config.Config
	logger *logrus.Logger

	// 인프라스트럭처 어댑터들
	commandExecutor interfaces.CommandExecutor
	clock           interfaces.Clock
	xrlClient       *xrl.Client

	// 서비스들
	healthService       *health.HealthService
	switchConfigService *services.SwitchConfigService

	// 저널
	journal interfaces.OperationJournal

	// 유스케이스
	applyOperationUseCase *usecases.ApplyOperationUseCase

	// HTTP
	router http.Handler
}

// NewContainer는 새로운 Container를 생성합니다
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	return newContainer(cfg, logger, adapters.NewRealCommandExecutor(), adapters.NewRealClock())
}

func newContainer(cfg *config.Config, logger *logrus.Logger, executor interfaces.CommandExecutor, clock interfaces.Clock) (*Container, error) {
	container := &Container{
		config:          cfg,
		logger:          logger,
		commandExecutor: executor,
		clock:           clock,
	}

	if err := container.initializeInfrastructure(); err != nil {
		return nil, err
	}

	container.initializeServices()
	container.initializeUseCases()

	return container, nil
}

// initializeInfrastructure는 인프라스트럭처 컴포넌트들을 초기화합니다
func (c *Container) initializeInfrastructure() error {
	client, err := xrl.NewClient(c.commandExecutor, xrl.Config{
		CallXRLPath:     c.config.XRL.CallXRLPath,
		Netns:           c.config.XRL.Netns,
		WaitSeconds:     c.config.XRL.WaitSeconds,
		FinderPrefix:    c.config.XRL.FinderPrefix,
		CommandTemplate: c.config.XRL.CommandTemplate,
		ShellPath:       c.config.XRL.ShellPath,
		Timeout:         c.config.XRL.CommandTimeout,
	}, c.logger)
	if err != nil {
		return err
	}
	c.xrlClient = client

	c.healthService = health.NewHealthService(c.clock, c.logger, c.config.Health.FailureThreshold)
	c.journal = c.openJournal()

	return nil
}

// openJournal connects the MySQL journal when enabled. A journal that cannot be
// reached is reported through health and replaced by the no-op journal.
func (c *Container) openJournal() interfaces.OperationJournal {
	if !c.config.Database.Enabled {
		return persistence.NoopJournal{}
	}

	db := c.config.Database
	dbConfig := persistence.DBConfig{
		Host:         db.Host,
		Port:         db.Port,
		User:         db.User,
		Password:     db.Password,
		Database:     db.Database,
		MaxOpenConns: db.MaxOpenConns,
		MaxIdleConns: db.MaxIdleConns,
		MaxLifetime:  db.MaxLifetime,
	}

	var journal *persistence.MySQLJournal
	backoff := persistence.NewExponentialBackoff(db.ConnectBackoff, 30*time.Second, 2.0)
	err := persistence.ConnectWithRetry(context.Background(), db.ConnectAttempts, backoff, c.logger,
		func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			var openErr error
			journal, openErr = persistence.OpenMySQLJournal(attemptCtx, dbConfig, c.logger)
			return openErr
		})
	if err != nil {
		c.logger.WithError(err).Error("Operation journal unavailable, continuing without it")
		c.healthService.SetJournalStatus(true, err)
		return persistence.NoopJournal{}
	}

	c.logger.WithFields(logrus.Fields{
		"host":     db.Host,
		"database": db.Database,
	}).Info("Operation journal connected")
	c.healthService.SetJournalStatus(true, nil)
	return journal
}

// initializeServices는 서비스들을 초기화합니다
func (c *Container) initializeServices() {
	c.switchConfigService = services.NewSwitchConfigService(
		c.xrlClient,
		c.logger,
		c.config.Dispatch.CompensateOnFailure,
	)
}

// initializeUseCases는 유스케이스들을 초기화합니다
func (c *Container) initializeUseCases() {
	c.applyOperationUseCase = usecases.NewApplyOperationUseCase(
		dispatch.NewTable(c.switchConfigService),
		c.journal,
		c.healthService,
		c.clock,
		c.logger,
	)

	handler := api.NewHandler(c.applyOperationUseCase, c.logger, c.config.Server.LegacyAlwaysOK)
	c.router = api.NewRouter(handler, c.logger, c.config.Server.MaxBodyBytes)
}

// GetConfig는 설정을 반환합니다
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetHealthService는 헬스 서비스를 반환합니다
func (c *Container) GetHealthService() *health.HealthService {
	return c.healthService
}

// GetRouter는 오퍼레이션 리스너의 HTTP 핸들러를 반환합니다
func (c *Container) GetRouter() http.Handler {
	return c.router
}

// Close는 컨테이너를 정리합니다
func (c *Container) Close() error {
	if c.journal != nil {
		return c.journal.Close()
	}
	return nil
}
