package persistence

import (
	"context"
	"database/sql"
	"net"
	"time"

	"xrl-config-agent/internal/domain/entities"
	"xrl-config-agent/internal/domain/errors"
	"xrl-config-agent/internal/domain/interfaces"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

const createJournalTable = `
	CREATE TABLE IF NOT EXISTS operation_journal (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		op          VARCHAR(16)   NOT NULL,
		path        VARCHAR(512)  NOT NULL,
		value       VARCHAR(512)  NOT NULL,
		route       VARCHAR(64)   NOT NULL,
		status      VARCHAR(16)   NOT NULL,
		error_type  VARCHAR(32)   NULL,
		failed_step VARCHAR(64)   NULL,
		output      TEXT          NULL,
		started_at  DATETIME(6)   NOT NULL,
		duration_ms BIGINT        NOT NULL
	)
`

const insertJournalEntry = `
	INSERT INTO operation_journal
		(op, path, value, route, status, error_type, failed_step, output, started_at, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// DBConfig is what the journal needs to reach MySQL
type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DSN formats the go-sql-driver connection string
func (c DBConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// sqlExecer is the part of *sql.DB the journal uses
type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Close() error
}

// MySQLJournal는 MySQL 기반의 OperationJournal 구현체입니다
type MySQLJournal struct {
	db     sqlExecer
	logger *logrus.Logger
}

// OpenMySQLJournal connects, pings and makes sure the journal table exists
func OpenMySQLJournal(ctx context.Context, cfg DBConfig, logger *logrus.Logger) (*MySQLJournal, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, errors.NewSystemError("데이터베이스 연결 실패", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewSystemError("데이터베이스 핑 실패", err)
	}

	journal := NewMySQLJournal(db, logger)
	if err := journal.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return journal, nil
}

// NewMySQLJournal는 새로운 MySQLJournal을 생성합니다
func NewMySQLJournal(db sqlExecer, logger *logrus.Logger) *MySQLJournal {
	return &MySQLJournal{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the journal table when missing
func (j *MySQLJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, createJournalTable); err != nil {
		return errors.NewSystemError("저널 테이블 생성 실패", err)
	}
	return nil
}

// Record inserts one journal entry
func (j *MySQLJournal) Record(ctx context.Context, record entities.OperationRecord) error {
	_, err := j.db.ExecContext(ctx, insertJournalEntry,
		string(record.Operation.Kind),
		record.Operation.Path,
		record.Operation.Value,
		record.Route,
		string(record.Status),
		nullString(record.ErrorType),
		nullString(record.FailedStep),
		nullString(record.Output),
		record.StartedAt,
		record.Duration.Milliseconds(),
	)
	if err != nil {
		return errors.NewSystemError("저널 기록 실패", err)
	}

	j.logger.WithFields(logrus.Fields{
		"route":  record.Route,
		"status": record.Status,
	}).Debug("Operation journaled")
	return nil
}

// Enabled is always true
func (j *MySQLJournal) Enabled() bool { return true }

// Close closes the database handle
func (j *MySQLJournal) Close() error {
	return j.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NoopJournal discards every record
type NoopJournal struct{}

var (
	_ interfaces.OperationJournal = (*MySQLJournal)(nil)
	_ interfaces.OperationJournal = NoopJournal{}
)

// Record does nothing
func (NoopJournal) Record(context.Context, entities.OperationRecord) error { return nil }

// Close does nothing
func (NoopJournal) Close() error { return nil }

// Enabled is always false
func (NoopJournal) Enabled() bool { return false }
