package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"osworks-api/internal/pkg/apperrors"
	"osworks-api/internal/pkg/i18n"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Nome  string `json:"nome" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

var fixedNow = time.Date(2024, 3, 10, 14, 30, 0, 0, time.FixedZone("BRT", -3*60*60))

func newTestWriter(t *testing.T) (*Writer, *i18n.MessageSource) {
	t.Helper()
	messages, err := i18n.NewMessageSource(i18n.LocalePtBR)
	require.NoError(t, err)

	pw := NewWriter(messages, slog.New(slog.NewTextHandler(io.Discard, nil)))
	pw.now = func() time.Time { return fixedNow }
	return pw, messages
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind apperrors.Kind
		want int
	}{
		{apperrors.KindNotFound, http.StatusNotFound},
		{apperrors.KindBusinessRule, http.StatusBadRequest},
		{apperrors.KindInvalidArgument, http.StatusBadRequest},
		{apperrors.KindValidation, http.StatusBadRequest},
		{apperrors.KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.kind))
		})
	}
}

func TestBuild(t *testing.T) {
	pw, messages := newTestWriter(t)
	req := httptest.NewRequest(http.MethodGet, "/clientes", nil)

	t.Run("not found uses error message as title", func(t *testing.T) {
		p := pw.Build(req, fmt.Errorf("service: %w", apperrors.NotFound("Cliente não encontrado")))
		assert.Equal(t, http.StatusNotFound, p.Status)
		assert.Equal(t, "Cliente não encontrado", p.Titulo)
		assert.Equal(t, fixedNow, p.DataHora)
		assert.Empty(t, p.Campos)
	})

	t.Run("business rule uses error message as title", func(t *testing.T) {
		p := pw.Build(req, apperrors.BusinessRule("Já existe um cliente cadastrado com este e-mail."))
		assert.Equal(t, http.StatusBadRequest, p.Status)
		assert.Equal(t, "Já existe um cliente cadastrado com este e-mail.", p.Titulo)
		assert.Empty(t, p.Campos)
	})

	t.Run("field validation lists every failure in order", func(t *testing.T) {
		err := messages.Validate(payload{Nome: "", Email: "bad"})
		require.Error(t, err)

		p := pw.Build(req, err)
		assert.Equal(t, http.StatusBadRequest, p.Status)
		assert.Equal(t, "Um ou mais campos estão inválidos. Faça o preenchimento correto e tente novamente", p.Titulo)
		require.Len(t, p.Campos, 2)
		assert.Equal(t, Field{Nome: "nome", Mensagem: "nome é um campo obrigatório"}, p.Campos[0])
		assert.Equal(t, Field{Nome: "email", Mensagem: "email deve ser um endereço de e-mail válido"}, p.Campos[1])
	})

	t.Run("field validation honours Accept-Language", func(t *testing.T) {
		enReq := httptest.NewRequest(http.MethodPost, "/clientes", nil)
		enReq.Header.Set("Accept-Language", "en-US")

		p := pw.Build(enReq, messages.Validate(payload{Email: "ana@x.com"}))
		assert.Equal(t, "One or more fields are invalid. Fill them in correctly and try again", p.Titulo)
		require.Len(t, p.Campos, 1)
		assert.Equal(t, "nome is a required field", p.Campos[0].Mensagem)
	})

	t.Run("invalid argument uses its message", func(t *testing.T) {
		p := pw.Build(req, apperrors.InvalidArgument("id inválido"))
		assert.Equal(t, http.StatusBadRequest, p.Status)
		assert.Equal(t, "id inválido", p.Titulo)
		assert.Empty(t, p.Campos)
	})

	t.Run("database error hides the cause", func(t *testing.T) {
		p := pw.Build(req, apperrors.WrapDatabaseError(errors.New("pq: connection reset"), "failed to count customers"))
		assert.Equal(t, http.StatusInternalServerError, p.Status)
		assert.NotContains(t, p.Titulo, "failed to count customers")
	})

	t.Run("unknown error hides the cause", func(t *testing.T) {
		p := pw.Build(req, errors.New("pq: connection reset"))
		assert.Equal(t, http.StatusInternalServerError, p.Status)
		assert.NotContains(t, p.Titulo, "connection reset")
		assert.Empty(t, p.Campos)
	})
}

func TestWrite(t *testing.T) {
	pw, _ := newTestWriter(t)
	req := httptest.NewRequest(http.MethodDelete, "/clientes/1", nil)
	rr := httptest.NewRecorder()

	pw.Write(rr, req, apperrors.BusinessRule("regra"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, float64(400), body["status"])
	assert.Equal(t, "regra", body["titulo"])
	assert.NotContains(t, body, "campos")

	ts, err := time.Parse(time.RFC3339, body["dataHora"].(string))
	require.NoError(t, err)
	assert.True(t, ts.Equal(fixedNow))
	assert.Contains(t, body["dataHora"], "-03:00")
}

func TestWriteMessage(t *testing.T) {
	pw, _ := newTestWriter(t)
	req := httptest.NewRequest(http.MethodGet, "/clientes/abc", nil)
	req.Header.Set("Accept-Language", "en")
	rr := httptest.NewRecorder()

	pw.WriteMessage(rr, req, http.StatusBadRequest, i18n.KeyInvalidID)

	var p Problem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "The given identifier is invalid", p.Titulo)
}
