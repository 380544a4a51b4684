package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"HalalScreener/internal/batch"
	"HalalScreener/internal/export"
	"HalalScreener/internal/model"
	"HalalScreener/internal/standard"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := s.registry.Current()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"service":         "halal-screener",
		"standard":        cfg.Standard,
		"battery":         cfg.Battery,
		"batches_running": s.registry.InFlight(),
		"uptime_seconds":  int(time.Since(s.started).Seconds()),
	})
}

type standardResponse struct {
	standard.Config
	DisplayName string             `json:"display_name"`
	Methodology string             `json:"methodology"`
	Overrides   map[string]float64 `json:"overrides,omitempty"`
}

func newStandardResponse(cfg standard.Config, sel standard.Request) standardResponse {
	return standardResponse{
		Config:      cfg,
		DisplayName: cfg.DisplayName(),
		Methodology: cfg.Methodology(),
		Overrides:   sel.Overrides,
	}
}

func (s *Server) handleGetStandard(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newStandardResponse(s.registry.Current(), s.registry.Selection()))
}

// standardRequest accepts display labels as well as canonical names.
type standardRequest struct {
	Standard  string             `json:"standard"`
	Battery   string             `json:"battery"`
	Overrides map[string]float64 `json:"overrides"`
}

func (s *Server) handlePutStandard(w http.ResponseWriter, r *http.Request) {
	var body standardRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	name, err := standard.ParseName(body.Standard)
	if err != nil {
		s.writeConfigError(w, err)
		return
	}
	battery, err := standard.ParseBattery(body.Battery)
	if err != nil {
		s.writeConfigError(w, err)
		return
	}

	req := standard.Request{Standard: name, Battery: battery, Overrides: body.Overrides}
	cfg, err := s.registry.Apply(req)
	if err != nil {
		s.writeConfigError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStandardResponse(cfg, req))
}

type screenRequest struct {
	Tickers []string `json:"tickers"`
}

func (s *Server) handleScreenBatch(w http.ResponseWriter, r *http.Request) {
	var body screenRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	report, err := s.runner.Run(r.Context(), body.Tickers)
	if err != nil {
		s.writeBatchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleScreenTicker(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.ScreenOne(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.writeBatchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.runner.Run(r.Context(), batch.ParseTickers(r.URL.Query().Get("tickers")))
	if err != nil {
		s.writeBatchError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(report.StartedAt)+`"`)
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, format, report.Results); err != nil {
		s.log.Error().Err(err).Str("run_id", report.RunID).Msg("export failed")
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.recorder.History(r.Context(), chi.URLParam(r, "ticker"), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("history query failed")
		s.writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeConfigError(w http.ResponseWriter, err error) {
	if errors.Is(err, standard.ErrBatchInFlight) {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	var ce *model.ConfigError
	if errors.As(err, &ce) {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": ce.Error(),
			"field": ce.Field,
		})
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeBatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, batch.ErrNoTickers), errors.Is(err, batch.ErrTooManyTickers):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("screening failed")
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
