package problem

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"osworks-api/internal/pkg/apperrors"
	"osworks-api/internal/pkg/i18n"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Problem is the error envelope returned for every failed request that
// carries a body.
type Problem struct {
	Status   int       `json:"status"`
	Titulo   string    `json:"titulo"`
	DataHora time.Time `json:"dataHora"`
	Campos   []Field   `json:"campos,omitempty"`
}

type Field struct {
	Nome     string `json:"nome"`
	Mensagem string `json:"mensagem"`
}

var statusByKind = map[apperrors.Kind]int{
	apperrors.KindNotFound:        http.StatusNotFound,
	apperrors.KindBusinessRule:    http.StatusBadRequest,
	apperrors.KindInvalidArgument: http.StatusBadRequest,
	apperrors.KindValidation:      http.StatusBadRequest,
}

// StatusFor returns the HTTP status for an error kind. Unmapped kinds are
// internal errors.
func StatusFor(kind apperrors.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type Writer struct {
	messages *i18n.MessageSource
	logger   *slog.Logger
	now      func() time.Time
}

func NewWriter(messages *i18n.MessageSource, logger *slog.Logger) *Writer {
	if messages == nil {
		panic("message source cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Writer{
		messages: messages,
		logger:   logger.With("component", "ProblemWriter"),
		now:      time.Now,
	}
}

// Build maps err to a Problem using the translator selected by the request's
// Accept-Language header.
func (pw *Writer) Build(r *http.Request, err error) Problem {
	trans := pw.messages.TranslatorFor(r.Header.Get("Accept-Language"))

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return pw.validationProblem(trans, fieldErrs)
	}

	kind := apperrors.KindOf(err)
	status := StatusFor(kind)

	if status == http.StatusInternalServerError {
		pw.logger.ErrorContext(r.Context(), "Unhandled internal error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		return Problem{
			Status:   status,
			Titulo:   pw.messages.Message(trans, i18n.KeyInternalError),
			DataHora: pw.now(),
		}
	}

	return Problem{
		Status:   status,
		Titulo:   apperrors.MessageOf(err),
		DataHora: pw.now(),
	}
}

func (pw *Writer) validationProblem(trans ut.Translator, fieldErrs validator.ValidationErrors) Problem {
	campos := make([]Field, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		campos = append(campos, Field{
			Nome:     fe.Field(),
			Mensagem: fe.Translate(trans),
		})
	}
	return Problem{
		Status:   StatusFor(apperrors.KindValidation),
		Titulo:   pw.messages.Message(trans, i18n.KeyInvalidFields),
		DataHora: pw.now(),
		Campos:   campos,
	}
}

// Write renders err as a Problem response.
func (pw *Writer) Write(w http.ResponseWriter, r *http.Request, err error) {
	pw.render(w, pw.Build(r, err))
}

// WriteMessage renders a Problem whose title is the localized message key.
func (pw *Writer) WriteMessage(w http.ResponseWriter, r *http.Request, status int, key string) {
	trans := pw.messages.TranslatorFor(r.Header.Get("Accept-Language"))
	pw.render(w, Problem{
		Status:   status,
		Titulo:   pw.messages.Message(trans, key),
		DataHora: pw.now(),
	})
}

func (pw *Writer) render(w http.ResponseWriter, p Problem) {
	body, err := json.Marshal(p)
	if err != nil {
		pw.logger.Error("Failed to marshal problem", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(p.Status)
	w.Write(body)
}
