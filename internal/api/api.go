package api

import (
	"errors"
	"log/slog"
	"net/http"

	"crf-trainer/internal/database"
	"crf-trainer/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

const maxRunsLimit = 500

// ReportService serves the run registry read-only.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

func (s *ReportService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(s.Health))
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListRuns))
		r.Get("/{run_id}", RestHandler(s.GetRun))
	})
}

func (s *ReportService) Health(r *http.Request) (any, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "database unavailable: %v", err)
	}
	if err := sqlDB.PingContext(r.Context()); err != nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "database unavailable: %v", err)
	}
	return map[string]string{"status": "ok"}, nil
}

func (s *ReportService) ListRuns(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ListRunsParams](r)
	if err != nil {
		return nil, err
	}
	if params.Limit < 0 || params.Limit > maxRunsLimit {
		return nil, CodedErrorf(http.StatusBadRequest, "limit must be between 0 and %d", maxRunsLimit)
	}

	runs, err := database.ListRuns(r.Context(), s.db, params.Status, params.Limit)
	if err != nil {
		slog.Error("error listing runs", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving training runs")
	}

	return convertRuns(runs), nil
}

func (s *ReportService) GetRun(r *http.Request) (any, error) {
	runId, err := URLParamUUID(r, "run_id")
	if err != nil {
		return nil, err
	}

	run, err := database.GetRun(r.Context(), s.db, runId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "training run not found")
		}
		slog.Error("error getting run", "run_id", runId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving training run")
	}

	return convertRunDetails(*run), nil
}
