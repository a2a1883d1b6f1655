package handler

import (
	"net/http"
	"strings"
	"time"

	"extsync/internal/rate"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type HistoryEntry struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

type HistoryResponse struct {
	Base   string         `json:"base"`
	Target string         `json:"target"`
	Rates  []HistoryEntry `json:"rates"`
}

// History handles GET /api/v1/rates/{base}/{target}/history?from&to.
// The range is inclusive of both endpoints; an empty range yields an
// empty list, not an error.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	fields := rate.FieldErrors{}

	base, err := rate.ParseCurrency(chi.URLParam(r, "base"))
	if err != nil {
		fields["base"] = err.Error()
	}
	target, err := rate.ParseCurrency(chi.URLParam(r, "target"))
	if err != nil {
		fields["target"] = err.Error()
	}

	query := r.URL.Query()
	if strings.TrimSpace(query.Get("from")) == "" {
		fields["from"] = "from date is required"
	}
	if strings.TrimSpace(query.Get("to")) == "" {
		fields["to"] = "to date is required"
	}
	from, err := rate.ParseDate(query.Get("from"), time.Time{})
	if err != nil {
		fields["from"] = err.Error()
	}
	to, err := rate.ParseDate(query.Get("to"), time.Time{})
	if err != nil {
		fields["to"] = err.Error()
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		fields["from"] = "from date must not be after to date"
	}
	if fields.Any() {
		writeValidationError(w, fields)
		return
	}

	rates, err := h.service.HistoricalRates(r.Context(), base, target, from, to)
	if err != nil {
		msg := "historical rates lookup failed"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "History", "base": base, "target": target}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	entries := make([]HistoryEntry, 0, len(rates))
	for _, rr := range rates {
		entries = append(entries, HistoryEntry{Date: rr.Date.Format("2006-01-02"), Rate: rr.Rate})
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Base: base, Target: target, Rates: entries})
}
