package service

import (
	"context"

	"github.com/supportdesk/ticket-router/internal/domain"
	"github.com/supportdesk/ticket-router/internal/repository"
	apperrors "github.com/supportdesk/ticket-router/pkg/util"
)

// CatalogService exposes the static problem type reference data.
type CatalogService struct {
	problemTypes repository.ProblemTypeRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(problemTypes repository.ProblemTypeRepository) *CatalogService {
	return &CatalogService{problemTypes: problemTypes}
}

// ListProblemTypes returns the full catalog.
func (s *CatalogService) ListProblemTypes(ctx context.Context) ([]domain.ProblemType, error) {
	types, err := s.problemTypes.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return types, nil
}

// GetProblemType returns one catalog entry.
func (s *CatalogService) GetProblemType(ctx context.Context, id string) (*domain.ProblemType, error) {
	problemType, err := s.problemTypes.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "problem type", map[string]any{"problem_type_id": id})
	}
	return problemType, nil
}
