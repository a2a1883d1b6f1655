package handler

import (
	"errors"
	"net/http"
	"time"

	"extsync/internal/domain"
	"extsync/internal/rate"

	"github.com/sirupsen/logrus"
)

type ConvertResponse struct {
	Amount    float64 `json:"amount"`
	Converted float64 `json:"converted"`
	Rate      float64 `json:"rate"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Date      string  `json:"date"`
}

// Convert handles GET /api/v1/rates/convert?amount&from&to&date.
// Date defaults to today. Validation failures come back as a per-field
// map; a missing rate is a business error distinct from validation.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fields := rate.FieldErrors{}

	amount, err := rate.ParseAmount(query.Get("amount"))
	if err != nil {
		fields["amount"] = err.Error()
	}
	from, err := rate.ParseCurrency(query.Get("from"))
	if err != nil {
		fields["from"] = err.Error()
	}
	to, err := rate.ParseCurrency(query.Get("to"))
	if err != nil {
		fields["to"] = err.Error()
	}
	date, err := rate.ParseDate(query.Get("date"), time.Now())
	if err != nil {
		fields["date"] = err.Error()
	}
	if fields.Any() {
		writeValidationError(w, fields)
		return
	}

	converted, effRate, err := h.service.Convert(r.Context(), amount, from, to, date)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		msg := "conversion failed"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "Convert", "from": from, "to": to}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, ConvertResponse{
		Amount:    amount,
		Converted: converted,
		Rate:      effRate,
		From:      from,
		To:        to,
		Date:      domain.Day(date).Format("2006-01-02"),
	})
}
