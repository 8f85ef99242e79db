package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"osworks-api/internal/domain/customer"
	"osworks-api/internal/infrastructure/monitoring"
	"osworks-api/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v3"
)

type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

const (
	selectCustomerColumns = `SELECT id, nome, email, COALESCE(telefone, '') FROM clientes`

	queryFindAll              = selectCustomerColumns + ` ORDER BY id ASC`
	queryFindByID             = selectCustomerColumns + ` WHERE id = $1`
	queryFindByNome           = selectCustomerColumns + ` WHERE nome = $1 ORDER BY id ASC`
	queryFindByNomeContaining = selectCustomerColumns + ` WHERE nome ILIKE '%' || $1 || '%' ORDER BY id ASC`
	queryFindByEmail          = selectCustomerColumns + ` WHERE email = $1`
	queryExistsByID           = `SELECT EXISTS (SELECT 1 FROM clientes WHERE id = $1)`
	queryCount                = `SELECT COUNT(*) FROM clientes`
	queryInsert               = `INSERT INTO clientes (nome, email, telefone) VALUES ($1, $2, NULLIF($3, '')) RETURNING id`
	queryUpdate               = `UPDATE clientes SET nome = $1, email = $2, telefone = NULLIF($3, '') WHERE id = $4`
	queryDeleteByID           = `DELETE FROM clientes WHERE id = $1`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*customer.Customer, error) {
	var cust customer.Customer
	if err := row.Scan(&cust.ID, &cust.Nome, &cust.Email, &cust.Telefone); err != nil {
		return nil, err
	}
	return &cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) (customers []*customer.Customer, err error) {
	defer observe("find_all", time.Now(), &err)

	r.logger.DebugContext(ctx, "Attempting to find all customers")
	return r.queryMany(ctx, "find all customers", queryFindAll)
}

func (r *CustomerRepository) FindByNome(ctx context.Context, nome string) (customers []*customer.Customer, err error) {
	defer observe("find_by_nome", time.Now(), &err)

	r.logger.DebugContext(ctx, "Attempting to find customers by exact name", slog.String("nome", nome))
	return r.queryMany(ctx, "find customers by name", queryFindByNome, nome)
}

func (r *CustomerRepository) FindByNomeContaining(ctx context.Context, termo string) (customers []*customer.Customer, err error) {
	defer observe("find_by_nome_containing", time.Now(), &err)

	r.logger.DebugContext(ctx, "Attempting to find customers by name fragment", slog.String("termo", termo))
	return r.queryMany(ctx, "find customers by name fragment", queryFindByNomeContaining, likeEscaper.Replace(termo))
}

func (r *CustomerRepository) queryMany(ctx context.Context, operation, query string, args ...any) ([]*customer.Customer, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.String("operation", operation), slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to "+operation)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, apperrors.WrapDatabaseError(err, "failed to scan customer row")
		}
		customers = append(customers, cust)
	}

	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "error iterating customer rows")
	}

	r.logger.DebugContext(ctx, "Finished finding customers", slog.String("operation", operation), slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (cust *customer.Customer, err error) {
	defer observe("find_by_id", time.Now(), &err)

	logCtx := r.logger.With(slog.Int64("clienteID", id))
	logCtx.DebugContext(ctx, "Attempting to find customer by ID")

	cust, err = scanCustomer(r.db.QueryRow(ctx, queryFindByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logCtx.DebugContext(ctx, "Customer not found")
			return nil, customer.ErrNotFound
		}
		logCtx.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to get customer by ID")
	}

	return cust, nil
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (cust *customer.Customer, err error) {
	defer observe("find_by_email", time.Now(), &err)

	cust, err = scanCustomer(r.db.QueryRow(ctx, queryFindByEmail, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by e-mail", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to get customer by e-mail")
	}

	return cust, nil
}

func (r *CustomerRepository) ExistsByID(ctx context.Context, id int64) (exists bool, err error) {
	defer observe("exists_by_id", time.Now(), &err)

	if err = r.db.QueryRow(ctx, queryExistsByID, id).Scan(&exists); err != nil {
		r.logger.ErrorContext(ctx, "Failed to check customer existence", slog.Int64("clienteID", id), slog.Any("error", err))
		return false, apperrors.WrapDatabaseError(err, "failed to check customer existence")
	}
	return exists, nil
}

func (r *CustomerRepository) Count(ctx context.Context) (count int64, err error) {
	defer observe("count", time.Now(), &err)

	if err = r.db.QueryRow(ctx, queryCount).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count customers", slog.Any("error", err))
		return 0, apperrors.WrapDatabaseError(err, "failed to count customers")
	}
	return count, nil
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return apperrors.InvalidArgument("customer cannot be nil")
	}

	if cust.IsNew() {
		return r.createCustomer(ctx, cust)
	}
	return r.updateCustomer(ctx, cust)
}

func (r *CustomerRepository) createCustomer(ctx context.Context, cust *customer.Customer) (err error) {
	defer observe("insert", time.Now(), &err)

	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("nome", cust.Nome))

	err = r.db.QueryRow(ctx, queryInsert, cust.Nome, cust.Email, cust.Telefone).Scan(&cust.ID)
	if err != nil {
		return translateDBError(err, r.logger.With(slog.String("operation", "insert")))
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("clienteID", cust.ID))
	return nil
}

func (r *CustomerRepository) updateCustomer(ctx context.Context, cust *customer.Customer) (err error) {
	defer observe("update", time.Now(), &err)

	logCtx := r.logger.With(slog.Int64("clienteID", cust.ID))
	logCtx.InfoContext(ctx, "Attempting to update customer")

	cmdTag, err := r.db.Exec(ctx, queryUpdate, cust.Nome, cust.Email, cust.Telefone, cust.ID)
	if err != nil {
		return translateDBError(err, logCtx.With(slog.String("operation", "update")))
	}

	if cmdTag.RowsAffected() == 0 {
		logCtx.WarnContext(ctx, "Update affected zero rows, customer likely not found")
		return customer.ErrNotFound
	}

	logCtx.InfoContext(ctx, "Customer updated successfully")
	return nil
}

func (r *CustomerRepository) DeleteByID(ctx context.Context, id int64) (err error) {
	defer observe("delete_by_id", time.Now(), &err)

	logCtx := r.logger.With(slog.Int64("clienteID", id))
	logCtx.InfoContext(ctx, "Attempting to delete customer")

	cmdTag, err := r.db.Exec(ctx, queryDeleteByID, id)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to execute delete customer", slog.Any("error", err))
		return apperrors.WrapDatabaseError(err, "failed to delete customer")
	}

	if cmdTag.RowsAffected() == 0 {
		logCtx.WarnContext(ctx, "Delete affected zero rows, customer likely not found")
		return customer.ErrNotFound
	}

	logCtx.InfoContext(ctx, "Customer deleted successfully")
	return nil
}

func observe(queryName string, start time.Time, err *error) {
	var queryErr error
	if err != nil && *err != nil && !errors.Is(*err, apperrors.ErrNotFound) {
		queryErr = *err
	}
	monitoring.RecordDBQuery(queryName, queryErr, time.Since(start))
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return customer.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return apperrors.WrapDatabaseError(pgErr, "db error code "+pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return apperrors.WrapDatabaseError(err, "generic database error")
}
