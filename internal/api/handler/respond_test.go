package handler

import (
	"net/http"
	"net/http/httptest"
	"osworks-api/internal/pkg/apperrors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Nome string `json:"nome"`
	}

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"single value", `{"nome":"Ana"}`, nil},
		{"trailing whitespace", "{\"nome\":\"Ana\"}\n  ", nil},
		{"second value", `{"nome":"Ana"} {"junk":1}`, errTrailingData},
		{"trailing garbage", `{"nome":"Ana"}]`, errTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/clientes", strings.NewReader(tt.payload))
			var got body
			err := decodeJSON(req, &got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ana", got.Nome)
		})
	}

	t.Run("no body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/clientes", nil)
		assert.ErrorIs(t, decodeJSON(req, &body{}), errNoBody)
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/clientes", strings.NewReader(`{"nome":"Ana","idade":3}`))
		assert.Error(t, decodeJSON(req, &body{}))
	})
}

func TestGetCustomerIDFromURL(t *testing.T) {
	t.Run("valid id", func(t *testing.T) {
		id, err := getCustomerIDFromURL(withID(httptest.NewRequest(http.MethodGet, "/clientes/7", nil), "7"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
	})

	for _, raw := range []string{"", "abc", "0", "-3"} {
		t.Run("rejects "+raw, func(t *testing.T) {
			_, err := getCustomerIDFromURL(withID(httptest.NewRequest(http.MethodGet, "/clientes/x", nil), raw))
			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
			assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
		})
	}
}
