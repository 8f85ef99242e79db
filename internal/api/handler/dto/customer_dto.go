package dto

import (
	"osworks-api/internal/domain/customer"
	"strings"
)

// CustomerRequest is the body of POST and PUT /clientes. The id is accepted
// so clients can echo a resource back, but the server never trusts it.
type CustomerRequest struct {
	ID       int64  `json:"id,omitempty"`
	Nome     string `json:"nome" validate:"required,max=60"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Telefone string `json:"telefone,omitempty" validate:"max=20"`
}

// Normalize trims surrounding whitespace so blank values fail "required".
func (r *CustomerRequest) Normalize() {
	r.Nome = strings.TrimSpace(r.Nome)
	r.Email = strings.TrimSpace(r.Email)
	r.Telefone = strings.TrimSpace(r.Telefone)
}

// ToDomain builds an unsaved customer. Callers assign the id.
func (r CustomerRequest) ToDomain() *customer.Customer {
	return customer.NewCustomer(r.Nome, r.Email, r.Telefone)
}

type CustomerResponse struct {
	ID       int64  `json:"id"`
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Telefone string `json:"telefone,omitempty"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		ID:       cust.ID,
		Nome:     cust.Nome,
		Email:    cust.Email,
		Telefone: cust.Telefone,
	}
}

// NewCustomerListResponse never returns nil so an empty list encodes as [].
func NewCustomerListResponse(customers []*customer.Customer) []CustomerResponse {
	resp := make([]CustomerResponse, 0, len(customers))
	for _, cust := range customers {
		resp = append(resp, NewCustomerResponse(cust))
	}
	return resp
}
