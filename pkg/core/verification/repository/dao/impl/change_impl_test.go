package dao

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sanchari/pkg/common/dbtest"
	errs "sanchari/pkg/common/errors"
	usermodel "sanchari/pkg/core/user/model"
	"sanchari/pkg/core/verification/model"
)

func setup(t *testing.T) (*GormChangeRepository, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t, &usermodel.User{}, &model.PendingChange{})
	require.NoError(t, db.Create(&usermodel.User{
		UID: "u1", Username: "u1", Email: "u1@example.com", PasswordHash: "x",
		Role: usermodel.RoleTraveler, IsActive: true,
	}).Error)
	return NewGormChangeRepository(db), db
}

func newChange(user string) *model.PendingChange {
	return &model.PendingChange{
		RequestID:   uuid.NewString(),
		UserUID:     user,
		TargetRole:  "guide",
		Steps:       []string{"kyc", "legalForm"},
		CurrentStep: 1,
		Data:        map[string]model.StepData{},
		Status:      model.StatusInProgress,
	}
}

func TestCreate_OneOpenChangePerUser(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)

	first := newChange("u1")
	require.NoError(t, r.Create(ctx, first))

	err := r.Create(ctx, newChange("u1"))
	assert.ErrorIs(t, err, errs.ErrChangePending)

	require.NoError(t, r.Create(ctx, newChange("u2")), "other users are independent")
}

func TestFindAndSave_RoundTripsJSONColumns(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)
	c := newChange("u1")
	require.NoError(t, r.Create(ctx, c))

	c.Data["kyc"] = model.StepData{Form: map[string]string{"fullName": "Asha"}}
	c.CurrentStep = 2
	require.NoError(t, r.Save(ctx, c))

	got, err := r.FindOpenByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, c.RequestID, got.RequestID)
	assert.Equal(t, []string{"kyc", "legalForm"}, got.Steps)
	assert.Equal(t, "Asha", got.Data["kyc"].Form["fullName"])
	assert.Equal(t, 2, got.CurrentStep)

	byID, err := r.FindByRequestID(ctx, c.RequestID)
	require.NoError(t, err)
	assert.Equal(t, got.ID, byID.ID)

	_, err = r.FindOpenByUser(ctx, "nobody")
	assert.ErrorIs(t, err, errs.ErrNoPendingChange)
	_, err = r.FindByRequestID(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNoPendingChange)

	assert.ErrorIs(t, r.Save(ctx, &model.PendingChange{}), errs.ErrNoPendingChange)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)
	c := newChange("u1")
	require.NoError(t, r.Create(ctx, c))

	require.NoError(t, r.Delete(ctx, c))
	_, err := r.FindOpenByUser(ctx, "u1")
	assert.ErrorIs(t, err, errs.ErrNoPendingChange)
	assert.ErrorIs(t, r.Delete(ctx, c), errs.ErrNoPendingChange)

	require.NoError(t, r.Create(ctx, newChange("u1")), "slot is free again")
}

func TestDecide(t *testing.T) {
	ctx := context.Background()
	r, db := setup(t)
	c := newChange("u1")
	require.NoError(t, r.Create(ctx, c))

	_, err := r.Decide(ctx, c.RequestID, model.StatusApproved, "admin", "", time.Now())
	assert.ErrorIs(t, err, errs.ErrNotSubmitted)

	c.Status = model.StatusSubmitted
	require.NoError(t, r.Save(ctx, c))

	_, err = r.Decide(ctx, c.RequestID, model.StatusSubmitted, "admin", "", time.Now())
	assert.ErrorIs(t, err, errs.ErrInvalidDecision)

	decided, err := r.Decide(ctx, c.RequestID, model.StatusApproved, "admin", "looks good", time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, decided.Status)
	assert.Nil(t, decided.OpenSlot)
	require.NotNil(t, decided.ReviewedAt)

	var u usermodel.User
	require.NoError(t, db.Where("uid = ?", "u1").First(&u).Error)
	assert.Equal(t, "guide", u.Role)

	_, err = r.FindOpenByUser(ctx, "u1")
	assert.ErrorIs(t, err, errs.ErrNoPendingChange, "decided changes are closed")
}

func TestDecide_RejectKeepsRole(t *testing.T) {
	ctx := context.Background()
	r, db := setup(t)
	c := newChange("u1")
	c.Status = model.StatusSubmitted
	require.NoError(t, r.Create(ctx, c))

	_, err := r.Decide(ctx, c.RequestID, model.StatusRejected, "admin", "blurry ID", time.Now())
	require.NoError(t, err)

	var u usermodel.User
	require.NoError(t, db.Where("uid = ?", "u1").First(&u).Error)
	assert.Equal(t, usermodel.RoleTraveler, u.Role)
}

func TestMarkStale(t *testing.T) {
	ctx := context.Background()
	r, db := setup(t)

	stale := newChange("u1")
	require.NoError(t, r.Create(ctx, stale))
	require.NoError(t, db.Model(&model.PendingChange{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	fresh := newChange("u2")
	require.NoError(t, r.Create(ctx, fresh))

	submitted := newChange("u3")
	submitted.Status = model.StatusSubmitted
	require.NoError(t, r.Create(ctx, submitted))
	require.NoError(t, db.Model(&model.PendingChange{}).Where("id = ?", submitted.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	n, err := r.MarkStale(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := r.FindByRequestID(ctx, stale.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIncomplete, got.Status)
	assert.Nil(t, got.OpenSlot)

	_, err = r.FindOpenByUser(ctx, "u3")
	assert.NoError(t, err, "submitted changes are never expired")
}
