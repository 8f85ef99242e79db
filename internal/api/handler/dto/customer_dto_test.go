package dto

import (
	"encoding/json"
	"osworks-api/internal/domain/customer"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRequestNormalize(t *testing.T) {
	req := CustomerRequest{Nome: "  Ana  ", Email: " ana@x.com ", Telefone: "   "}
	req.Normalize()

	assert.Equal(t, "Ana", req.Nome)
	assert.Equal(t, "ana@x.com", req.Email)
	assert.Empty(t, req.Telefone)
}

func TestCustomerRequestToDomainIgnoresID(t *testing.T) {
	req := CustomerRequest{ID: 77, Nome: "Ana", Email: "ana@x.com", Telefone: "11 99999-0000"}

	cust := req.ToDomain()

	assert.Zero(t, cust.ID)
	assert.True(t, cust.IsNew())
	assert.Equal(t, "Ana", cust.Nome)
	assert.Equal(t, "ana@x.com", cust.Email)
	assert.Equal(t, "11 99999-0000", cust.Telefone)
}

func TestNewCustomerResponse(t *testing.T) {
	t.Run("maps every field", func(t *testing.T) {
		resp := NewCustomerResponse(&customer.Customer{ID: 3, Nome: "Bia", Email: "bia@x.com", Telefone: "123"})
		assert.Equal(t, CustomerResponse{ID: 3, Nome: "Bia", Email: "bia@x.com", Telefone: "123"}, resp)
	})

	t.Run("nil customer", func(t *testing.T) {
		assert.Equal(t, CustomerResponse{}, NewCustomerResponse(nil))
	})

	t.Run("telefone omitted when empty", func(t *testing.T) {
		body, err := json.Marshal(NewCustomerResponse(&customer.Customer{ID: 1, Nome: "Ana", Email: "ana@x.com"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":1,"nome":"Ana","email":"ana@x.com"}`, string(body))
	})
}

func TestNewCustomerListResponseEmpty(t *testing.T) {
	body, err := json.Marshal(NewCustomerListResponse(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}
