package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"osworks-api/internal/event"
	"osworks-api/internal/infrastructure/monitoring"
	"osworks-api/internal/pkg/apperrors"
)

const ruleUniqueEmail = "email_duplicado"

// RegistrationService owns every customer mutation.
type RegistrationService interface {
	Save(ctx context.Context, customer *Customer) (*Customer, error)
	Delete(ctx context.Context, id int64) error
}

var _ RegistrationService = (*registrationService)(nil)

type registrationService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewRegistrationService(repo CustomerRepository, publisher event.EventPublisher, logger *slog.Logger) RegistrationService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewRegistrationService, using default stderr handler")
	}

	if publisher == nil {
		logger.Warn("Warning: No event publisher provided to NewRegistrationService, events will be dropped")
		publisher = event.NewNoopPublisher(logger)
	}

	return &registrationService{
		repo:   repo,
		pub:    publisher,
		logger: logger.With(slog.String("component", "registrationService")),
	}
}

func NewCustomerEventPayload(cust *Customer) event.CustomerPayload {
	if cust == nil {
		return event.CustomerPayload{}
	}
	return event.CustomerPayload{
		ID:       cust.ID,
		Nome:     cust.Nome,
		Email:    cust.Email,
		Telefone: cust.Telefone,
	}
}

func (s *registrationService) Save(ctx context.Context, cust *Customer) (*Customer, error) {
	if cust == nil {
		return nil, apperrors.InvalidArgument("customer cannot be nil")
	}

	creating := cust.IsNew()
	logCtx := s.logger.With(slog.Int64("clienteID", cust.ID), slog.Bool("creating", creating))
	logCtx.InfoContext(ctx, "Attempting to save customer")

	if err := s.ensureEmailAvailable(ctx, cust); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, cust); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			logCtx.WarnContext(ctx, "Unique constraint rejected customer e-mail", slog.Any("error", err))
			monitoring.RecordBusinessRuleRejection(ruleUniqueEmail)
			return nil, ErrEmailInUse
		case errors.Is(err, apperrors.ErrNotFound):
			logCtx.WarnContext(ctx, "Customer disappeared before save completed")
			return nil, fmt.Errorf("failed to save customer %d: %w", cust.ID, ErrNotFound)
		default:
			logCtx.ErrorContext(ctx, "Repository failed to save customer", slog.Any("error", err))
			return nil, fmt.Errorf("failed to save customer: %w", err)
		}
	}

	logCtx = logCtx.With(slog.Int64("clienteID", cust.ID))
	payload := NewCustomerEventPayload(cust)

	if creating {
		monitoring.RecordCustomerCreated()
		s.publish(ctx, logCtx, s.pub.PublishCustomerCreated, event.NewCustomerEvent(event.RoutingKeyCustomerCreated, payload))
	} else {
		monitoring.RecordCustomerUpdated()
		s.publish(ctx, logCtx, s.pub.PublishCustomerUpdated, event.NewCustomerEvent(event.RoutingKeyCustomerUpdated, payload))
	}

	logCtx.InfoContext(ctx, "Successfully saved customer")
	return cust, nil
}

func (s *registrationService) ensureEmailAvailable(ctx context.Context, cust *Customer) error {
	existing, err := s.repo.FindByEmail(ctx, cust.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		s.logger.ErrorContext(ctx, "Repository error checking customer e-mail", slog.Any("error", err))
		return fmt.Errorf("failed to check customer e-mail: %w", err)
	}

	if existing != nil && existing.ID != cust.ID {
		s.logger.WarnContext(ctx, "Business rule failed: e-mail already used by another customer",
			slog.Int64("clienteID", cust.ID), slog.Int64("ownerID", existing.ID))
		monitoring.RecordBusinessRuleRejection(ruleUniqueEmail)
		return ErrEmailInUse
	}
	return nil
}

func (s *registrationService) Delete(ctx context.Context, id int64) error {
	logCtx := s.logger.With(slog.Int64("clienteID", id))
	logCtx.InfoContext(ctx, "Attempting to delete customer")

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found by repository for delete")
			return fmt.Errorf("failed to delete customer %d: %w", id, ErrNotFound)
		}
		logCtx.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", id, err)
	}

	monitoring.RecordCustomerRemoved()
	s.publish(ctx, logCtx, s.pub.PublishCustomerRemoved, event.NewCustomerEvent(event.RoutingKeyCustomerRemoved, event.CustomerPayload{ID: id}))

	logCtx.InfoContext(ctx, "Successfully deleted customer")
	return nil
}

// publish never fails the mutation; the row is already committed.
func (s *registrationService) publish(ctx context.Context, logCtx *slog.Logger, fn func(context.Context, event.CustomerEvent) error, evt event.CustomerEvent) {
	if err := fn(ctx, evt); err != nil {
		logCtx.ErrorContext(ctx, "Customer saved, but FAILED to publish event", slog.String("tipo", evt.Tipo), slog.Any("error", err))
		return
	}
	logCtx.DebugContext(ctx, "Published customer event", slog.String("tipo", evt.Tipo))
}
