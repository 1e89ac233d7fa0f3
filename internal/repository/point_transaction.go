package repository

import (
	"context"
	"time"

	"github.com/questx-lab/reputation/internal/entity"
	"github.com/questx-lab/reputation/pkg/xcontext"
)

type PointTransactionRepository interface {
	Create(ctx context.Context, transaction *entity.PointTransaction) error
	GetList(ctx context.Context, userID string, offset, limit int) ([]entity.PointTransaction, error)
	Count(ctx context.Context, userID string) (int64, error)

	// SumPoints adds the points of the user's transactions of activity
	// created in [from, to). An empty activity matches every transaction.
	SumPoints(ctx context.Context, userID, activity string, from, to time.Time) (int64, error)
}

type pointTransactionRepository struct{}

func NewPointTransactionRepository() *pointTransactionRepository {
	return &pointTransactionRepository{}
}

func (r *pointTransactionRepository) Create(
	ctx context.Context, transaction *entity.PointTransaction,
) error {
	return xcontext.DB(ctx).Create(transaction).Error
}

// GetList returns the transactions of user, newest first.
func (r *pointTransactionRepository) GetList(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.PointTransaction, error) {
	result := []entity.PointTransaction{}
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *pointTransactionRepository) Count(ctx context.Context, userID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.PointTransaction{}).
		Where("user_id=?", userID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}

func (r *pointTransactionRepository) SumPoints(
	ctx context.Context, userID, activity string, from, to time.Time,
) (int64, error) {
	tx := xcontext.DB(ctx).
		Model(&entity.PointTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id=?", userID)

	if activity != "" {
		tx = tx.Where("activity=?", activity)
	}

	if !from.IsZero() {
		tx = tx.Where("created_at>=?", from)
	}

	if !to.IsZero() {
		tx = tx.Where("created_at<?", to)
	}

	var result int64
	if err := tx.Scan(&result).Error; err != nil {
		return 0, err
	}

	return result, nil
}
