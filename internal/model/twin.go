package model

import (
	"time"

	"twin-dashboard/pkg/authapi"
)

// Twin statuses.
const (
	TwinStatusIdle    = "idle"
	TwinStatusRunning = "running"
)

// Twin is a simulated manufacturing digital twin. The dashboard pages only
// list and inspect these; creation is an admin operation.
type Twin struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t Twin) Snapshot() authapi.Twin {
	return authapi.Twin{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt,
	}
}
