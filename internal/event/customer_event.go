package event

import "time"

const (
	RoutingKeyCustomerCreated = "cliente.criado"
	RoutingKeyCustomerUpdated = "cliente.atualizado"
	RoutingKeyCustomerRemoved = "cliente.removido"
)

type CustomerPayload struct {
	ID       int64  `json:"id"`
	Nome     string `json:"nome,omitempty"`
	Email    string `json:"email,omitempty"`
	Telefone string `json:"telefone,omitempty"`
}

type CustomerEvent struct {
	Tipo       string          `json:"tipo"`
	OcorridoEm time.Time       `json:"ocorridoEm"`
	Cliente    CustomerPayload `json:"cliente"`
}

func NewCustomerEvent(tipo string, payload CustomerPayload) CustomerEvent {
	return CustomerEvent{
		Tipo:       tipo,
		OcorridoEm: time.Now(),
		Cliente:    payload,
	}
}
