package dao

import (
	"context"
	"time"

	"sanchari/pkg/core/verification/model"
)

type ChangeRepository interface {
	// Create fails with ErrChangePending when the user already has an open change.
	Create(ctx context.Context, change *model.PendingChange) error
	FindOpenByUser(ctx context.Context, userUID string) (*model.PendingChange, error)
	FindByRequestID(ctx context.Context, requestID string) (*model.PendingChange, error)
	// Save overwrites the stored record; concurrent writers are last-write-wins.
	Save(ctx context.Context, change *model.PendingChange) error
	Delete(ctx context.Context, change *model.PendingChange) error
	// Decide closes a submitted change; approval also grants the target role.
	Decide(ctx context.Context, requestID string, status model.Status, reviewer, notes string, at time.Time) (*model.PendingChange, error)
	// MarkStale turns in-progress changes untouched since before into incomplete ones.
	MarkStale(ctx context.Context, before time.Time) (int64, error)
}
