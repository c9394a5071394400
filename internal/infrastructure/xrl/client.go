package xrl

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"xrl-config-agent/internal/domain/entities"
	"xrl-config-agent/internal/domain/errors"
	"xrl-config-agent/internal/domain/interfaces"
	"xrl-config-agent/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasttemplate"
)

// Template tags available in the command template
const (
	TagNetns   = "netns"
	TagCallXRL = "call_xrl"
	TagWait    = "wait"
)

// unsafeChars cannot appear inside the double-quoted XRL argument
const unsafeChars = "\"`$\\"

var _ interfaces.XRLCaller = (*Client)(nil)

// Config describes how call_xrl is launched
type Config struct {
	CallXRLPath     string
	Netns           string
	WaitSeconds     int
	FinderPrefix    string
	CommandTemplate string
	ShellPath       string
	Timeout         time.Duration
}

// Client runs XRLs through call_xrl. Every call is a separate shell invocation of
// `<command prefix> "<xrl>"`.
type Client struct {
	executor interfaces.CommandExecutor
	logger   *logrus.Logger
	prefix   string
	finder   string
	shell    string
	timeout  time.Duration
}

// NewClient renders the command template and creates a Client
func NewClient(executor interfaces.CommandExecutor, cfg Config, logger *logrus.Logger) (*Client, error) {
	prefix, err := RenderCommandPrefix(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		executor: executor,
		logger:   logger,
		prefix:   prefix,
		finder:   cfg.FinderPrefix,
		shell:    cfg.ShellPath,
		timeout:  cfg.Timeout,
	}, nil
}

// RenderCommandPrefix expands the netns, call_xrl and wait tags. Unknown tags are an error.
func RenderCommandPrefix(cfg Config) (string, error) {
	t, err := fasttemplate.NewTemplate(cfg.CommandTemplate, "{{", "}}")
	if err != nil {
		return "", errors.NewValidationError("invalid XRL command template", err)
	}

	values := map[string]string{
		TagNetns:   cfg.Netns,
		TagCallXRL: cfg.CallXRLPath,
		TagWait:    strconv.Itoa(cfg.WaitSeconds),
	}
	prefix, err := t.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		v, ok := values[strings.TrimSpace(tag)]
		if !ok {
			return 0, fmt.Errorf("unknown tag %q", tag)
		}
		return w.Write([]byte(v))
	})
	if err != nil {
		return "", errors.NewValidationError("invalid XRL command template", err)
	}
	return strings.TrimSpace(prefix), nil
}

// StartTransaction opens a transaction on target and returns the trimmed id
func (c *Client) StartTransaction(ctx context.Context, target string) (string, error) {
	out, err := c.Invoke(ctx, entities.XRL{Target: target, Method: "start_transaction"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// CommitTransaction commits tid on target
func (c *Client) CommitTransaction(ctx context.Context, target, tid string) error {
	_, err := c.Invoke(ctx, entities.XRL{Target: target, Method: "commit_transaction", TransactionID: tid})
	return err
}

// AbortTransaction discards tid on target
func (c *Client) AbortTransaction(ctx context.Context, target, tid string) error {
	_, err := c.Invoke(ctx, entities.XRL{Target: target, Method: "abort_transaction", TransactionID: tid})
	return err
}

// Invoke runs a single XRL and returns the tool's stdout
func (c *Client) Invoke(ctx context.Context, call entities.XRL) ([]byte, error) {
	rendered := call.Render(c.finder)
	if strings.ContainsAny(rendered, unsafeChars) {
		metrics.RecordError("validation")
		return nil, errors.NewValidationError(fmt.Sprintf("XRL contains shell metacharacters: %s", rendered), nil)
	}

	command := c.prefix + ` "` + rendered + `"`
	log := c.logger.WithFields(logrus.Fields{
		"target": call.Target,
		"method": call.Method,
	})
	log.WithField("command", command).Debug("Invoking XRL")

	start := time.Now()
	out, err := c.executor.ExecuteWithTimeout(ctx, c.timeout, c.shell, "-c", command)
	duration := time.Since(start).Seconds()

	if err != nil {
		status := "failed"
		if errors.IsTimeoutError(err) {
			status = "timeout"
		}
		metrics.RecordXRLCall(call.Method, status, duration)

		output := errors.OutputOf(err)
		if output == "" {
			output = strings.TrimSpace(string(out))
		}
		log.WithFields(logrus.Fields{
			"output": output,
			"status": status,
		}).WithError(err).Error("XRL failed")

		errType := errors.TypeOf(err)
		if errType == "" {
			errType = errors.ErrorTypeSystem
		}
		return out, &errors.DomainError{
			Type:    errType,
			Message: fmt.Sprintf("%s/%s failed", call.Target, call.Method),
			Cause:   err,
			Output:  output,
		}
	}

	metrics.RecordXRLCall(call.Method, "success", duration)
	log.WithField("output", strings.TrimSpace(string(out))).Debug("XRL succeeded")
	return out, nil
}
