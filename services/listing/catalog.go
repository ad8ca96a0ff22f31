package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restate/database/repository/document"
	"restate/models"
	"restate/services/recognition"

	"go.uber.org/zap"
)

const allTypes = "All"

func (s *DefaultListingService) Latest(ctx context.Context, limit int) ([]models.Building, error) {
	if limit <= 0 {
		limit = DefaultLatest
	}
	return s.Buildings.Latest(ctx, limit)
}

func (s *DefaultListingService) Search(ctx context.Context, params SearchParams) ([]models.Building, error) {
	filter := strings.TrimSpace(params.Type)
	if filter == "" || strings.EqualFold(filter, allTypes) {
		return s.Buildings.Search(ctx, strings.TrimSpace(params.Query), params.Limit)
	}

	t, ok := models.ParsePropertyType(filter)
	if !ok {
		verr := &models.ValidationError{}
		verr.Add("type", "must be All, Apartment, House, Office or Villa")
		return nil, verr
	}

	detailIDs, err := s.Details.IDsByType(ctx, t)
	if err != nil {
		return nil, err
	}
	buildings, err := s.Buildings.ListByDetailIDs(ctx, detailIDs)
	if err != nil {
		return nil, err
	}
	if params.Limit > 0 && len(buildings) > params.Limit {
		buildings = buildings[:params.Limit]
	}
	return buildings, nil
}

func (s *DefaultListingService) Get(ctx context.Context, buildingID string) (*Listing, error) {
	building, err := s.Buildings.GetByID(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	out := &Listing{Building: building}
	if building.DetailID == "" {
		return out, nil
	}

	details, err := s.Details.GetByID(ctx, building.DetailID)
	switch {
	case errors.Is(err, document.ErrNotFound):
		s.logger().Warn("Building links to missing details",
			zap.String("buildingId", buildingID), zap.String("detailsId", building.DetailID))
	case err != nil:
		return nil, err
	default:
		out.Details = details
	}
	return out, nil
}

// Recognize classifies the photo and resolves the predicted building. A
// prediction that names no stored building is treated as no match.
func (s *DefaultListingService) Recognize(ctx context.Context, filename string, image []byte) (*Listing, error) {
	id, err := s.Recognizer.Identify(ctx, filename, image)
	if err != nil {
		return nil, err
	}

	found, err := s.Get(ctx, id)
	if errors.Is(err, document.ErrNotFound) {
		return nil, fmt.Errorf("predicted building %s: %w", id, recognition.ErrNoMatch)
	}
	return found, err
}
