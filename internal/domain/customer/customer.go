package customer

type Customer struct {
	ID       int64  `json:"id"`
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Telefone string `json:"telefone,omitempty"`
}

func NewCustomer(nome, email, telefone string) *Customer {
	return &Customer{
		Nome:     nome,
		Email:    email,
		Telefone: telefone,
	}
}

// IsNew reports whether the customer has not been persisted yet.
func (c *Customer) IsNew() bool {
	return c.ID == 0
}
