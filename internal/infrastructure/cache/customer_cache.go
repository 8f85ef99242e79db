package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"osworks-api/internal/domain/customer"
	"osworks-api/internal/infrastructure/monitoring"
	"strconv"
	"time"
)

const keyPrefix = "osworks:cliente:"

// CachedCustomerRepository keeps FindByID results in a Store. Every other
// read goes straight to the wrapped repository; writes invalidate the entry.
// Cache failures are logged and never fail the call.
type CachedCustomerRepository struct {
	customer.CustomerRepository
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CachedCustomerRepository)(nil)

func NewCachedCustomerRepository(next customer.CustomerRepository, store Store, ttl time.Duration, logger *slog.Logger) *CachedCustomerRepository {
	if next == nil {
		panic("customer repository cannot be nil")
	}
	if store == nil {
		panic("cache store cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &CachedCustomerRepository{
		CustomerRepository: next,
		store:              store,
		ttl:                ttl,
		logger:             logger.With("component", "CachedCustomerRepository"),
	}
}

func customerKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func (r *CachedCustomerRepository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	key := customerKey(id)

	raw, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		var cust customer.Customer
		if jsonErr := json.Unmarshal(raw, &cust); jsonErr == nil {
			monitoring.RecordCacheLookup(true)
			return &cust, nil
		}
		r.logger.WarnContext(ctx, "Discarding unreadable cache entry", slog.String("key", key))
	case !errors.Is(err, ErrCacheMiss):
		r.logger.WarnContext(ctx, "Cache lookup failed, falling back to repository", slog.String("key", key), slog.Any("error", err))
	}
	monitoring.RecordCacheLookup(false)

	cust, err := r.CustomerRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(cust); err == nil {
		if err := r.store.Set(ctx, key, raw, r.ttl); err != nil {
			r.logger.WarnContext(ctx, "Failed to populate cache", slog.String("key", key), slog.Any("error", err))
		}
	}
	return cust, nil
}

func (r *CachedCustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if err := r.CustomerRepository.Save(ctx, cust); err != nil {
		return err
	}
	r.evict(ctx, cust.ID)
	return nil
}

func (r *CachedCustomerRepository) DeleteByID(ctx context.Context, id int64) error {
	err := r.CustomerRepository.DeleteByID(ctx, id)
	r.evict(ctx, id)
	return err
}

func (r *CachedCustomerRepository) evict(ctx context.Context, id int64) {
	if err := r.store.Del(ctx, customerKey(id)); err != nil {
		r.logger.WarnContext(ctx, "Failed to evict cache entry", slog.Int64("clienteID", id), slog.Any("error", err))
	}
}
