package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"twin-dashboard/internal/model"
	"twin-dashboard/pkg/apierror"
	"twin-dashboard/pkg/authapi"
)

// TwinStore is implemented by repository.TwinRepository and
// repository.MemoryTwinStore.
type TwinStore interface {
	Create(ctx context.Context, t model.Twin) error
	FindByID(ctx context.Context, id string) (model.Twin, error)
	List(ctx context.Context) ([]model.Twin, error)
}

// TwinService backs the protected digital-twin endpoints. It is the
// representative "business" resource behind the resource gate; the dashboard
// pages only list and inspect twins.
type TwinService struct {
	twins TwinStore
}

func NewTwinService(twins TwinStore) *TwinService {
	return &TwinService{twins: twins}
}

func (s *TwinService) List(ctx context.Context) ([]model.Twin, error) {
	return s.twins.List(ctx)
}

func (s *TwinService) Get(ctx context.Context, id string) (model.Twin, error) {
	return s.twins.FindByID(ctx, id)
}

func (s *TwinService) Create(ctx context.Context, ownerID string, req authapi.CreateTwinRequest) (model.Twin, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Twin{}, apierror.New("VALIDATION", "Twin name is required", http.StatusBadRequest)
	}

	twin := model.Twin{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      model.TwinStatusIdle,
		OwnerID:     ownerID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.twins.Create(ctx, twin); err != nil {
		return model.Twin{}, err
	}

	return twin, nil
}
