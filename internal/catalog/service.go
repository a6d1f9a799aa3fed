package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

// FormatDTO is the public shape of a print format.
type FormatDTO struct {
	ID          int64   `json:"format_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       string  `json:"price"`
}

// Service exposes the catalog to HTTP handlers.
type Service interface {
	List(ctx context.Context) ([]FormatDTO, error)
}

type formatLister interface {
	List(ctx context.Context) ([]models.Format, error)
}

type service struct {
	repo formatLister
}

// NewService builds the catalog service.
func NewService(repo formatLister) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]FormatDTO, error) {
	formats, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list formats")
	}
	out := make([]FormatDTO, 0, len(formats))
	for _, f := range formats {
		out = append(out, toFormatDTO(f))
	}
	return out, nil
}

func toFormatDTO(f models.Format) FormatDTO {
	return FormatDTO{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price.StringFixed(2),
	}
}
