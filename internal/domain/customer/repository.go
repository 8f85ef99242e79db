package customer

import (
	"context"
	"osworks-api/internal/pkg/apperrors"
)

var (
	ErrNotFound = apperrors.NotFound("Cliente não encontrado")

	ErrEmailInUse = apperrors.BusinessRule("Já existe um cliente cadastrado com este e-mail.")
)

type CustomerRepository interface {
	FindAll(ctx context.Context) ([]*Customer, error)

	FindByID(ctx context.Context, id int64) (*Customer, error)

	ExistsByID(ctx context.Context, id int64) (bool, error)

	// Save inserts when customer.ID is zero and updates otherwise. The
	// generated id is written back on insert.
	Save(ctx context.Context, customer *Customer) error

	DeleteByID(ctx context.Context, id int64) error

	FindByNome(ctx context.Context, nome string) ([]*Customer, error)

	FindByNomeContaining(ctx context.Context, termo string) ([]*Customer, error)

	FindByEmail(ctx context.Context, email string) (*Customer, error)

	Count(ctx context.Context) (int64, error)
}
