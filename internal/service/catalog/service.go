// Package catalog manages the clients and services appointments refer to.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sanderbeurden/plannerapp-sub000/internal/domain"
	"github.com/sanderbeurden/plannerapp-sub000/internal/service"
	"github.com/sanderbeurden/plannerapp-sub000/internal/store"
)

type Service struct {
	store    store.Catalog
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(catalog store.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    catalog,
		logger:   logger.With("component", "catalog"),
		validate: newValidator(),
	}
}

type ClientInput struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type ServiceInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	DurationMinutes int    `json:"durationMinutes" validate:"gt=0,lte=1440"`
	PriceCents      *int64 `json:"priceCents" validate:"omitempty,gte=0"`
}

// newValidator reports fields under their JSON names so issues line up with
// the request body.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs struct validation and folds the result into a ValidationError
// together with the business id requirement.
func (s *Service) check(businessID string, in any) error {
	v := &service.ValidationError{}
	if businessID == "" {
		v.Add("businessId", "is required")
	}
	if err := s.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate %T: %w", in, err)
		}
		for _, fe := range fieldErrs {
			v.Add(fe.Field(), issue(fe))
		}
	}
	return v.Err()
}

func issue(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gte":
		if fe.Param() == "0" {
			return "must not be negative"
		}
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}

func (s *Service) CreateClient(ctx context.Context, businessID string, in ClientInput) (domain.Client, error) {
	in = ClientInput{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Notes:     strings.TrimSpace(in.Notes),
	}
	if err := s.check(businessID, in); err != nil {
		return domain.Client{}, err
	}

	c := domain.Client{
		BusinessID: businessID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Phone:      in.Phone,
		Notes:      in.Notes,
	}
	created, err := s.store.CreateClient(ctx, c)
	if err != nil {
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}
	return created, nil
}

func (s *Service) ListClients(ctx context.Context, businessID string) ([]domain.Client, error) {
	if businessID == "" {
		return nil, service.Invalid("businessId", "is required")
	}
	out, err := s.store.ListClients(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

func (s *Service) GetClient(ctx context.Context, businessID string, id uuid.UUID) (domain.Client, error) {
	if err := checkID(businessID, id); err != nil {
		return domain.Client{}, err
	}
	c, err := s.store.GetClient(ctx, businessID, id)
	if err != nil {
		return domain.Client{}, classify("client", id, err)
	}
	return c, nil
}

// DeleteClient fails with a ConflictError while appointments reference the
// client, cancelled ones included.
func (s *Service) DeleteClient(ctx context.Context, businessID string, id uuid.UUID) error {
	if err := checkID(businessID, id); err != nil {
		return err
	}
	if err := s.store.DeleteClient(ctx, businessID, id); err != nil {
		return classify("client", id, err)
	}
	s.logger.InfoContext(ctx, "client deleted", "business_id", businessID, "client_id", id)
	return nil
}

func (s *Service) CreateService(ctx context.Context, businessID string, in ServiceInput) (domain.Service, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(businessID, in); err != nil {
		return domain.Service{}, err
	}

	svc := domain.Service{
		BusinessID:      businessID,
		Name:            in.Name,
		DurationMinutes: in.DurationMinutes,
		PriceCents:      in.PriceCents,
	}
	created, err := s.store.CreateService(ctx, svc)
	if err != nil {
		return domain.Service{}, fmt.Errorf("create service: %w", err)
	}
	return created, nil
}

func (s *Service) ListServices(ctx context.Context, businessID string) ([]domain.Service, error) {
	if businessID == "" {
		return nil, service.Invalid("businessId", "is required")
	}
	out, err := s.store.ListServices(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

func (s *Service) GetService(ctx context.Context, businessID string, id uuid.UUID) (domain.Service, error) {
	if err := checkID(businessID, id); err != nil {
		return domain.Service{}, err
	}
	svc, err := s.store.GetService(ctx, businessID, id)
	if err != nil {
		return domain.Service{}, classify("service", id, err)
	}
	return svc, nil
}

func (s *Service) DeleteService(ctx context.Context, businessID string, id uuid.UUID) error {
	if err := checkID(businessID, id); err != nil {
		return err
	}
	if err := s.store.DeleteService(ctx, businessID, id); err != nil {
		return classify("service", id, err)
	}
	s.logger.InfoContext(ctx, "service deleted", "business_id", businessID, "service_id", id)
	return nil
}

func checkID(businessID string, id uuid.UUID) error {
	v := &service.ValidationError{}
	if businessID == "" {
		v.Add("businessId", "is required")
	}
	if id == uuid.Nil {
		v.Add("id", "is required")
	}
	return v.Err()
}

func classify(resource string, id uuid.UUID, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &service.NotFoundError{Resource: resource, ID: id}
	case errors.Is(err, store.ErrInUse):
		reason := service.ReasonClientInUse
		if resource == "service" {
			reason = service.ReasonServiceInUse
		}
		return &service.ConflictError{Reason: reason}
	}
	return fmt.Errorf("%s %s: %w", resource, id, err)
}
