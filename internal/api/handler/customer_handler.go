package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"osworks-api/internal/api/handler/dto"
	"osworks-api/internal/api/problem"
	"osworks-api/internal/domain/customer"
	"osworks-api/internal/pkg/apperrors"
	"osworks-api/internal/pkg/i18n"
	"strconv"
	"strings"
)

// CustomerReader is the read side of the customer repository used by the
// controller. Mutations go through customer.RegistrationService.
type CustomerReader interface {
	FindAll(ctx context.Context) ([]*customer.Customer, error)
	FindByID(ctx context.Context, id int64) (*customer.Customer, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	FindByNome(ctx context.Context, nome string) ([]*customer.Customer, error)
	FindByNomeContaining(ctx context.Context, termo string) ([]*customer.Customer, error)
}

type CustomerHandler struct {
	repo     CustomerReader
	service  customer.RegistrationService
	messages *i18n.MessageSource
	problems *problem.Writer
	logger   *slog.Logger
}

func NewCustomerHandler(repo CustomerReader, s customer.RegistrationService, messages *i18n.MessageSource, problems *problem.Writer, l *slog.Logger) *CustomerHandler {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if s == nil {
		panic("registration service cannot be nil")
	}
	if messages == nil || problems == nil {
		panic("message source and problem writer cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		repo:     repo,
		service:  s,
		messages: messages,
		problems: problems,
		logger:   l.With("component", "CustomerHandler"),
	}
}

// ListCustomers handles GET /clientes
// @Summary List customers
// @Description Returns every registered customer ordered by id. An empty store yields an empty array.
// @Tags Clientes
// @Produce json
// @Success 200 {array} dto.CustomerResponse "List of customers"
// @Failure 500 {object} problem.Problem "Internal server error"
// @Router /clientes [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received list customers request")

	customers, err := h.repo.FindAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Repository failed to list customers", slog.Any("error", err))
		h.problems.Write(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customers listed successfully", slog.Int("count", len(customers)))
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(customers))
}

// SearchCustomers handles GET /clientes/busca
// @Summary Search customers by name
// @Description Exact match with nome, case-insensitive substring match with termo. One of them is required; nome wins when both are given.
// @Tags Clientes
// @Produce json
// @Param nome query string false "Exact name"
// @Param termo query string false "Name fragment"
// @Success 200 {array} dto.CustomerResponse "Matching customers"
// @Failure 400 {object} problem.Problem "Missing search parameter"
// @Failure 500 {object} problem.Problem "Internal server error"
// @Router /clientes/busca [get]
// @Security BearerAuth
func (h *CustomerHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	nome := strings.TrimSpace(query.Get("nome"))
	termo := strings.TrimSpace(query.Get("termo"))

	var (
		customers []*customer.Customer
		err       error
	)
	switch {
	case nome != "":
		customers, err = h.repo.FindByNome(r.Context(), nome)
	case termo != "":
		customers, err = h.repo.FindByNomeContaining(r.Context(), termo)
	default:
		h.logger.WarnContext(r.Context(), "Search request without nome or termo")
		h.problems.WriteMessage(w, r, http.StatusBadRequest, i18n.KeySearchParamRequired)
		return
	}

	if err != nil {
		h.logger.ErrorContext(r.Context(), "Repository failed to search customers", slog.Any("error", err))
		h.problems.Write(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(customers))
}

// GetCustomer handles GET /clientes/{id}
// @Summary Retrieve a customer
// @Description Returns the customer with the given id. An unknown id answers 404 with an empty body.
// @Tags Clientes
// @Produce json
// @Param id path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.CustomerResponse "Customer"
// @Failure 400 {object} problem.Problem "Invalid id"
// @Failure 404 "Customer not found"
// @Failure 500 {object} problem.Problem "Internal server error"
// @Router /clientes/{id} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	cust, err := h.repo.FindByID(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.logger.InfoContext(r.Context(), "Customer not found", slog.Int64("clienteID", customerID))
			respondEmpty(w, http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "Repository failed to get customer", slog.Any("error", err))
		h.problems.Write(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(cust))
}

// CreateCustomer handles POST /clientes
// @Summary Create a customer
// @Description Validates the payload and registers a new customer. Any id in the body is ignored.
// @Tags Clientes
// @Accept json
// @Produce json
// @Param request body dto.CustomerRequest true "Customer"
// @Success 201 {object} dto.CustomerResponse "Customer created"
// @Failure 400 {object} problem.Problem "Invalid fields, malformed body or e-mail already in use"
// @Failure 500 {object} problem.Problem "Internal server error"
// @Router /clientes [post]
// @Security BearerAuth
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create customer request")

	req, ok := h.decodeCustomer(w, r)
	if !ok {
		return
	}

	created, err := h.service.Save(r.Context(), req.ToDomain())
	if err != nil {
		h.logServiceError(r, "Service failed to create customer", err)
		h.problems.Write(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer created successfully", slog.Int64("clienteID", created.ID))
	w.Header().Set("Location", "/clientes/"+strconv.FormatInt(created.ID, 10))
	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(created))
}

// UpdateCustomer handles PUT /clientes/{id}
// @Summary Update a customer
// @Description Replaces the customer with the given id. The path id always wins over a body id. An unknown id answers 404 with an empty body.
// @Tags Clientes
// @Accept json
// @Produce json
// @Param id path int true "Customer ID" Minimum(1)
// @Param request body dto.CustomerRequest true "Customer"
// @Success 200 {object} dto.CustomerResponse "Customer updated"
// @Failure 400 {object} problem.Problem "Invalid id, invalid fields or e-mail already in use"
// @Failure 404 "Customer not found"
// @Failure 500 {object} problem.Problem "Internal server error"
// @Router /clientes/{id} [put]
// @Security BearerAuth
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeCustomer(w, r)
	if !ok {
		return
	}

	if !h.ensureExists(w, r, customerID) {
		return
	}

	cust := req.ToDomain()
	cust.ID = customerID

	updated, err := h.service.Save(r.Context(), cust)
	if err != nil {
		h.logServiceError(r, "Service failed to update customer", err)
		h.problems.Write(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer updated successfully", slog.Int64("clienteID", updated.ID))
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

// DeleteCustomer handles DELETE /clientes/{id}
// @Summary Delete a customer
// @Description Removes the customer with the given id. An unknown id answers 404 with an empty body.
// @Tags Clientes
// @Param id path int true "Customer ID" Minimum(1)
// @Success 204 "Customer deleted"
// @Failure 400 {object} problem.Problem "Invalid id"
// @Failure 404 "Customer not found"
// @Failure 500 {object} problem.Problem "Internal server error"
// @Router /clientes/{id} [delete]
// @Security BearerAuth
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.customerID(w, r)
	if !ok {
		return
	}

	if !h.ensureExists(w, r, customerID) {
		return
	}

	if err := h.service.Delete(r.Context(), customerID); err != nil {
		h.logServiceError(r, "Service failed to delete customer", err)
		h.problems.Write(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer deleted successfully", slog.Int64("clienteID", customerID))
	respondEmpty(w, http.StatusNoContent)
}

func (h *CustomerHandler) customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		h.problems.WriteMessage(w, r, http.StatusBadRequest, i18n.KeyInvalidID)
		return 0, false
	}
	return customerID, true
}

func (h *CustomerHandler) decodeCustomer(w http.ResponseWriter, r *http.Request) (dto.CustomerRequest, bool) {
	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		h.problems.WriteMessage(w, r, http.StatusBadRequest, i18n.KeyMalformedBody)
		return req, false
	}

	req.Normalize()
	if err := h.messages.Validate(req); err != nil {
		h.logger.WarnContext(r.Context(), "Customer payload failed validation", slog.Any("error", err))
		h.problems.Write(w, r, err)
		return req, false
	}
	return req, true
}

// ensureExists answers a bodiless 404 itself when the customer is absent.
func (h *CustomerHandler) ensureExists(w http.ResponseWriter, r *http.Request, customerID int64) bool {
	exists, err := h.repo.ExistsByID(r.Context(), customerID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Repository failed to check customer existence", slog.Any("error", err))
		h.problems.Write(w, r, fmt.Errorf("failed to check customer %d: %w", customerID, err))
		return false
	}
	if !exists {
		h.logger.InfoContext(r.Context(), "Customer not found", slog.Int64("clienteID", customerID))
		respondEmpty(w, http.StatusNotFound)
		return false
	}
	return true
}

func (h *CustomerHandler) logServiceError(r *http.Request, msg string, err error) {
	level := slog.LevelError
	if apperrors.KindOf(err) != apperrors.KindUnknown {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, msg, slog.Any("error", err))
}
