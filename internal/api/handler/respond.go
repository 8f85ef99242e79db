package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"osworks-api/internal/pkg/apperrors"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const customerIDParam = "id"

var (
	errNoBody       = errors.New("no request body")
	errTrailingData = errors.New("unexpected data after JSON body")
)

// decodeJSON accepts exactly one JSON value with no unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errNoBody
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondEmpty writes a status with no body.
func respondEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

func getCustomerIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, customerIDParam)
	if idStr == "" {
		return 0, apperrors.InvalidArgument("id not found in URL path")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidArgument("invalid id format in URL path: " + idStr)
	}
	return id, nil
}
