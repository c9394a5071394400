package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xrl-config-agent/internal/infrastructure/adapters"
	"xrl-config-agent/internal/infrastructure/config"
	"xrl-config-agent/internal/infrastructure/container"
	"xrl-config-agent/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// 로거 초기화
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// 설정 로드
	configLoader := config.NewEnvironmentConfigLoader(adapters.NewRealFileSystem())
	cfg, err := configLoader.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// 로그 레벨 설정 (LOG_LEVEL 또는 설정 파일)
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("Unknown LOG_LEVEL value: %s. Using default Info level.", cfg.LogLevel)
	} else {
		logger.SetLevel(logLevel)
	}

	// 의존성 주입 컨테이너 생성
	appContainer, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create dependency injection container")
	}
	defer func() {
		if err := appContainer.Close(); err != nil {
			logger.WithError(err).Error("Failed to cleanup container")
		}
	}()

	// 애플리케이션 시작
	app := NewApplication(appContainer, logger)
	if err := app.Run(); err != nil {
		logger.WithError(err).Error("Application stopped with error")
		os.Exit(1)
	}
}

// Application은 메인 애플리케이션 구조체입니다
type Application struct {
	container    *container.Container
	logger       *logrus.Logger
	apiServer    *http.Server
	healthServer *http.Server
}

// NewApplication은 새로운 Application을 생성합니다
func NewApplication(container *container.Container, logger *logrus.Logger) *Application {
	return &Application{
		container: container,
		logger:    logger,
	}
}

// Run은 서버들을 시작하고 종료 시그널을 기다립니다
func (a *Application) Run() error {
	cfg := a.container.GetConfig()

	// 에이전트 정보 메트릭 설정
	metrics.SetAgentInfo(version, cfg.XRL.Netns, cfg.Dispatch.CompensateOnFailure)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	a.startHealthServer(cfg.Health.Port, errCh)
	a.startAPIServer(cfg.Server.ListenAddr, errCh)

	a.logger.WithFields(logrus.Fields{
		"version":     version,
		"listen_addr": cfg.Server.ListenAddr,
		"netns":       cfg.XRL.Netns,
		"compensate":  cfg.Dispatch.CompensateOnFailure,
		"legacy_ok":   cfg.Server.LegacyAlwaysOK,
	}).Info("XRL config agent started")

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	case runErr = <-errCh:
		a.logger.WithError(runErr).Error("Server failed")
	}

	a.shutdown(cfg.Server.ShutdownTimeout)
	return runErr
}

// startAPIServer는 오퍼레이션 리스너를 시작합니다
func (a *Application) startAPIServer(addr string, errCh chan<- error) {
	a.apiServer = &http.Server{
		Addr:              addr,
		Handler:           a.container.GetRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		// no WriteTimeout: one operation may run several call_xrl invocations
	}

	go func() {
		a.logger.WithField("addr", addr).Info("Operation listener started")
		if err := a.apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
}

// startHealthServer는 헬스체크 서버를 시작합니다
func (a *Application) startHealthServer(port string, errCh chan<- error) {
	healthService := a.container.GetHealthService()

	// HTTP 핸들러 설정
	mux := http.NewServeMux()
	mux.Handle("/", healthService)
	mux.Handle("/healthz", healthService)
	mux.Handle("/metrics", promhttp.Handler())

	a.healthServer = &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.WithField("port", port).Info("Health check server started (with /metrics)")
		if err := a.healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
}

// shutdown은 진행 중인 오퍼레이션이 끝나기를 기다린 뒤 서버들을 종료합니다
func (a *Application) shutdown(timeout time.Duration) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.apiServer != nil {
		if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Error("Failed to shutdown operation listener")
		}
	}
	if a.healthServer != nil {
		if err := a.healthServer.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Error("Failed to shutdown health check server")
		}
	}
	a.logger.Info("XRL config agent stopped")
}
