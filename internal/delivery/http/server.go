package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres/repository"
	"github.com/adilzhanb/lingoquest/internal/service"
)

// Server exposes the settlement endpoint the quiz service calls when a
// learner finishes an attempt, plus a health check.
type Server struct {
	settlement *service.SettlementService
	logger     *zap.Logger
	srv        *http.Server
}

// NewServer creates the HTTP server on the given listen address.
func NewServer(addr string, settlement *service.SettlementService, logger *zap.Logger) *Server {
	s := &Server{
		settlement: settlement,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/settlements", s.handleSettle)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// settleRequest is the quiz completion event payload.
type settleRequest struct {
	UserID  int64 `json:"user_id"`
	QuizID  int64 `json:"quiz_id"`
	Answers []struct {
		QuestionID int64 `json:"question_id"`
		ChoiceID   int64 `json:"choice_id"`
	} `json:"answers"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.UserID == 0 || req.QuizID == 0 {
		writeError(w, http.StatusBadRequest, "user_id and quiz_id are required")
		return
	}

	answers := make([]entities.AnswerSubmission, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, entities.AnswerSubmission{
			QuestionID: a.QuestionID,
			ChoiceID:   a.ChoiceID,
		})
	}

	result, err := s.settlement.Settle(r.Context(), req.UserID, req.QuizID, answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrQuizNotFound):
			writeError(w, http.StatusNotFound, "quiz not found")
		default:
			// Retryable: the caller re-invokes the settlement in full.
			s.logger.Error("settlement failed",
				zap.Int64("user_id", req.UserID),
				zap.Int64("quiz_id", req.QuizID),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "settlement failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
