package repository

import (
	"context"

	"cafedex/internal/models"

	"gorm.io/gorm"
)

// LikeRepository models the user-likes-cafe edge explicitly instead of
// hiding it behind relationship collections. All operations are single
// statements guarded by the join table's composite primary key.
type LikeRepository interface {
	// AddLike inserts the (user, cafe) row. A concurrent duplicate insert
	// trips the composite key; that is reported as alreadyLiked=true, not an
	// error.
	AddLike(ctx context.Context, userID, cafeID uint) (alreadyLiked bool, err error)
	// RemoveLike deletes the (user, cafe) row and reports whether a row
	// existed.
	RemoveLike(ctx context.Context, userID, cafeID uint) (removed bool, err error)
	HasLike(ctx context.Context, userID, cafeID uint) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) AddLike(ctx context.Context, userID, cafeID uint) (bool, error) {
	like := models.Like{UserID: userID, CafeID: cafeID}
	if err := r.db.WithContext(ctx).Create(&like).Error; err != nil {
		if isUniqueConstraintError(err) {
			return true, nil
		}
		return false, models.NewInternalError(err)
	}
	return false, nil
}

func (r *likeRepository) RemoveLike(ctx context.Context, userID, cafeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND cafe_id = ?", userID, cafeID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) HasLike(ctx context.Context, userID, cafeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND cafe_id = ?", userID, cafeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
