package submission

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, s *Submission) error
	GetByCode(ctx context.Context, code string) (*Submission, error)
	// Claim flips the claimed flag for an unclaimed row with this code and
	// reports whether this caller won it.
	Claim(ctx context.Context, code string) (bool, error)
	// Release puts a claimed row back into the claimable state.
	Release(ctx context.Context, code string) error
	// Delete removes the row; deleting an already-gone id is not an error.
	Delete(ctx context.Context, id int64) error
	// DeleteExpiredBefore bulk-deletes rows created before the threshold
	// and returns how many went. Claimed rows past the threshold are
	// included: a claim lives for the duration of one mail send, so any
	// claim older than the TTL was orphaned by a crash mid-finalize and
	// would otherwise leak forever.
	DeleteExpiredBefore(ctx context.Context, threshold time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Submission, error) {
	var s Submission
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) Claim(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Submission{}).
		Where("code = ? AND claimed = ?", code, false).
		Update("claimed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Release(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Model(&Submission{}).
		Where("code = ?", code).
		Update("claimed", false).Error
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&Submission{}, id).Error
}

func (r *repository) DeleteExpiredBefore(ctx context.Context, threshold time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", threshold).
		Delete(&Submission{})
	return res.RowsAffected, res.Error
}
