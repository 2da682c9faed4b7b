package service

import (
	"context"
	catalogerrors "courtbook/internal/catalog/errors"
	"courtbook/internal/catalog/repository"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
	"errors"
	"fmt"
)

// CourtInfo bundles a court with the grid and branch policy it books under.
type CourtInfo struct {
	Court  *model.Court
	Type   *model.CourtType
	Branch *model.Branch
}

type CatalogService interface {
	ResolveCourt(ctx context.Context, courtID, branchID string) (*CourtInfo, error)
	ResolveCustomer(ctx context.Context, ref model.CustomerRef) (*model.Customer, error)
	AwardPoints(ctx context.Context, customerID string, points int64) error

	GetCourt(ctx context.Context, id string) (*model.Court, error)
	ListCourts(ctx context.Context, branchID string) ([]*model.Court, error)
	GetBranch(ctx context.Context, id string) (*model.Branch, error)
}

type catalogService struct {
	courts    repository.CourtRepository
	branches  repository.BranchRepository
	customers repository.CustomerRepository
	log       *logger.Logger
}

func NewCatalogService(
	courts repository.CourtRepository,
	branches repository.BranchRepository,
	customers repository.CustomerRepository,
	log *logger.Logger,
) CatalogService {
	return &catalogService{
		courts:    courts,
		branches:  branches,
		customers: customers,
		log:       log,
	}
}

// ResolveCourt loads everything a mutation needs about a court. Ids that do
// not resolve are input errors here, not missing resources. An empty branchID
// means the court's own branch.
func (s *catalogService) ResolveCourt(ctx context.Context, courtID, branchID string) (*CourtInfo, error) {
	court, err := s.courts.FindByID(ctx, courtID)
	if err != nil {
		return nil, reference(err, "court", courtID)
	}
	if branchID != "" && court.BranchID != branchID {
		s.log.Warn("Court does not belong to branch", "court_id", courtID, "branch_id", branchID)
		return nil, apperrors.Validation("Court does not belong to the branch", map[string]any{
			"court_id":  courtID,
			"branch_id": branchID,
		})
	}

	courtType, err := s.courts.FindType(ctx, court.CourtTypeID)
	if err != nil {
		return nil, reference(err, "court type", court.CourtTypeID)
	}
	if courtType.RentDurationMinutes <= 0 {
		return nil, apperrors.Validation("Court type has no rent duration", map[string]any{
			"court_type_id": courtType.ID,
		})
	}

	branch, err := s.branches.FindByID(ctx, court.BranchID)
	if err != nil {
		return nil, reference(err, "branch", court.BranchID)
	}

	return &CourtInfo{Court: court, Type: courtType, Branch: branch}, nil
}

func (s *catalogService) ResolveCustomer(ctx context.Context, ref model.CustomerRef) (*model.Customer, error) {
	switch ref.Kind {
	case model.ByCustomerID:
		customer, err := s.customers.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, reference(err, "customer", ref.ID)
		}
		return customer, nil

	case model.ByAccountID:
		matches, err := s.customers.FindByAccountID(ctx, ref.ID)
		if err != nil {
			return nil, apperrors.Translate(err, "Failed to resolve customer account")
		}
		switch len(matches) {
		case 0:
			return nil, apperrors.UnknownReference("customer account", ref.ID)
		case 1:
			return matches[0], nil
		default:
			s.log.Warn("Account maps to several customers", "account_id", ref.ID)
			return nil, apperrors.Validation("Account maps to more than one customer", map[string]any{
				"account_id": ref.ID,
			})
		}
	}

	return nil, apperrors.Validation(fmt.Sprintf("unknown customer reference kind %q", ref.Kind), nil)
}

func (s *catalogService) AwardPoints(ctx context.Context, customerID string, points int64) error {
	if points <= 0 {
		return nil
	}
	if err := s.customers.AddBonusPoints(ctx, customerID, points); err != nil {
		return reference(err, "customer", customerID)
	}
	s.log.Info("Loyalty points awarded", "customer_id", customerID, "points", points)
	return nil
}

func (s *catalogService) GetCourt(ctx context.Context, id string) (*model.Court, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Court ID cannot be empty")
	}
	court, err := s.courts.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Court", id)
	}
	return court, nil
}

func (s *catalogService) ListCourts(ctx context.Context, branchID string) ([]*model.Court, error) {
	if branchID == "" {
		return nil, apperrors.InvalidInput("Branch ID cannot be empty")
	}
	courts, err := s.courts.FindByBranch(ctx, branchID)
	if err != nil {
		s.log.Error("Failed to list courts", "branch_id", branchID, "error", err)
		return nil, apperrors.Translate(err, "Failed to list courts")
	}
	return courts, nil
}

func (s *catalogService) GetBranch(ctx context.Context, id string) (*model.Branch, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Branch ID cannot be empty")
	}
	branch, err := s.branches.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Branch", id)
	}
	return branch, nil
}

// reference maps a failed lookup on a mutation path.
func reference(err error, resource, id string) error {
	if errors.Is(err, catalogerrors.ErrNotFound) || errors.Is(err, catalogerrors.ErrInvalidID) {
		return apperrors.UnknownReference(resource, id)
	}
	return apperrors.Translate(err, "Failed to load "+resource)
}

// lookup maps a failed lookup on a read path.
func lookup(err error, resource, id string) error {
	switch {
	case errors.Is(err, catalogerrors.ErrNotFound):
		return apperrors.NotFoundWithID(resource, id)
	case errors.Is(err, catalogerrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid %s ID format", resource))
	}
	return apperrors.Translate(err, "Failed to retrieve "+resource)
}
