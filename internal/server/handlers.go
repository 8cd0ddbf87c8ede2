package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/casbridge/internal/errors"
	"github.com/agbru/casbridge/internal/orchestration"
	"github.com/agbru/casbridge/pkg/models"
)

var tracer = otel.Tracer("casbridge/server")

// evalRequest is the POST /eval body.
type evalRequest struct {
	Exprs []string `json:"exprs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleEval evaluates one expression from GET ?expr= or a batch from a
// POST body. A single expression answers 200 on success, 422 on an engine
// error and 504 on timeout; a batch always answers 200 with a BatchReport.
func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "eval", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	switch r.Method {
	case http.MethodGet:
		expr := r.URL.Query().Get("expr")
		if err := s.validateExpr("expr", expr); err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		span.SetAttributes(attribute.Int("eval.batch_size", 1))
		res := s.evaluate(ctx, []string{expr})[0]
		s.recordOutcome(span, res)
		s.writeJSONResponse(w, statusFor(res.Err), res.Model())

	case http.MethodPost:
		var req evalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
			return
		}
		if len(req.Exprs) == 0 {
			s.writeErrorResponse(w, http.StatusBadRequest, "Missing 'exprs'")
			return
		}
		if len(req.Exprs) > s.securityConfig.MaxBatchSize {
			s.writeErrorResponse(w, http.StatusBadRequest,
				fmt.Sprintf("Batch of %d expressions exceeds the maximum of %d", len(req.Exprs), s.securityConfig.MaxBatchSize))
			return
		}
		for i, e := range req.Exprs {
			if err := s.validateExpr(fmt.Sprintf("exprs[%d]", i), e); err != nil {
				s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		span.SetAttributes(attribute.Int("eval.batch_size", len(req.Exprs)))
		results := s.evaluate(ctx, req.Exprs)
		records := make([]models.EvalResult, len(results))
		for i, res := range results {
			s.recordOutcome(span, res)
			records[i] = res.Model()
		}
		s.writeJSONResponse(w, http.StatusOK, models.NewBatchReport(records))

	default:
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) evaluate(ctx context.Context, exprs []string) []orchestration.EvaluationResult {
	return orchestration.ExecuteEvaluations(ctx, s.evaluator, exprs, orchestration.Options{
		Concurrency: s.cfg.Concurrency,
		Timeout:     s.timeouts.RequestTimeout,
	})
}

func (s *Server) validateExpr(field, expr string) error {
	if expr == "" {
		return apperrors.NewValidationError(field, "must not be empty", expr)
	}
	if len(expr) > s.securityConfig.MaxExprLength {
		return apperrors.NewValidationError(field,
			fmt.Sprintf("longer than %d bytes", s.securityConfig.MaxExprLength), nil)
	}
	return nil
}

func (s *Server) recordOutcome(span trace.Span, res orchestration.EvaluationResult) {
	switch {
	case res.Err == nil:
		s.metrics.evaluated("success")
	case apperrors.IsContextError(res.Err):
		s.metrics.evaluated("timeout")
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	default:
		s.metrics.evaluated("error")
		span.RecordError(res.Err)
	}
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusUnprocessableEntity
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
