package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"xrl-config-agent/internal/application/usecases"
	domainErrors "xrl-config-agent/internal/domain/errors"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// OperationApplier applies one configuration operation
type OperationApplier interface {
	Execute(ctx context.Context, input usecases.ApplyOperationInput) (*usecases.ApplyOperationOutput, error)
}

// Handler serves the operation endpoint
type Handler struct {
	applier        OperationApplier
	logger         *logrus.Logger
	legacyAlwaysOK bool
}

// NewHandler creates a new Handler.
// With legacyAlwaysOK set, failed operations are answered like successful ones.
func NewHandler(applier OperationApplier, logger *logrus.Logger, legacyAlwaysOK bool) *Handler {
	return &Handler{
		applier:        applier,
		logger:         logger,
		legacyAlwaysOK: legacyAlwaysOK,
	}
}

// Echo answers any GET with the echo body
func (h *Handler) Echo(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	writeEcho(w, r, body)
}

// ApplyOperation decodes, validates and applies a POSTed operation
func (h *Handler) ApplyOperation(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var req OperationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteInvalidRequest(w, "body must be a JSON object with op, path and value: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteValidationError(w, "invalid operation", validationDetails(err))
		return
	}

	output, err := h.applier.Execute(r.Context(), usecases.ApplyOperationInput{
		Op:    req.Op,
		Path:  req.Path,
		Value: string(req.Value),
	})
	if output != nil {
		if output.Route != "" {
			w.Header().Set("X-Operation-Route", output.Route)
		}
		w.Header().Set("X-Operation-Status", string(output.Status))
	}

	if err != nil {
		if h.legacyAlwaysOK {
			h.logger.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"path":       req.Path,
			}).WithError(err).Warn("Operation failed, answering 200 in legacy mode")
			writeEcho(w, r, body)
			return
		}
		writeOperationError(w, err)
		return
	}

	writeEcho(w, r, body)
}

// MethodNotAllowed rejects everything but GET and POST
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteMethodNotAllowed(w, r.Method)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteRequestTooLarge(w)
			return nil, false
		}
		WriteInvalidRequest(w, "failed to read request body")
		return nil, false
	}
	return body, true
}

// writeOperationError maps a failed operation to a status code and error code
func writeOperationError(w http.ResponseWriter, err error) {
	details := map[string]interface{}{
		"error_type": string(domainErrors.TypeOf(err)),
	}
	if step := domainErrors.StepOf(err); step != "" {
		details["step"] = step
	}
	if output := domainErrors.OutputOf(err); output != "" {
		details["output"] = output
	}

	var (
		status int
		code   ErrorCode
	)
	switch {
	case domainErrors.IsValidationError(err):
		status, code = http.StatusUnprocessableEntity, ErrCodeValidationFailed
	case domainErrors.IsTimeoutError(err):
		status, code = http.StatusGatewayTimeout, ErrCodeTimeout
	default:
		switch domainErrors.TypeOf(err) {
		case domainErrors.ErrorTypeTransactionStart:
			status, code = http.StatusBadGateway, ErrCodeTransactionStartFailed
		case domainErrors.ErrorTypeStep:
			status, code = http.StatusBadGateway, ErrCodeStepFailed
		case domainErrors.ErrorTypeCommit:
			status, code = http.StatusBadGateway, ErrCodeCommitFailed
		default:
			status, code = http.StatusInternalServerError, ErrCodeInternalError
		}
	}

	WriteError(w, status, NewAPIError(code, err.Error()).WithDetails(details))
}

func writeEcho(w http.ResponseWriter, r *http.Request, body []byte) {
	cookies := map[string]string{}
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(EchoResponse{
		Path:      r.URL.Path,
		QueryData: parseQueryPairs(r.URL.RawQuery),
		PostData:  string(body),
		FormData:  parseQueryPairs(string(body)),
		Cookies:   cookies,
	})
}

// parseQueryPairs decodes a urlencoded string into a flat map. Pairs with a blank
// value are dropped and the last occurrence of a key wins.
func parseQueryPairs(raw string) map[string]string {
	out := map[string]string{}
	// malformed pairs are skipped, the rest are still returned
	values, _ := url.ParseQuery(raw)
	for key, vs := range values {
		for _, v := range vs {
			if v != "" {
				out[key] = v
			}
		}
	}
	return out
}
