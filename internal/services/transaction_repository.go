package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"creator-payments/internal/models"
	"creator-payments/pkg/common"
)

// Settlement describes the pending → paid transition of one transaction.
type Settlement struct {
	TransactionID string
	PaidAt        time.Time
	ProDuration   time.Duration
}

// TransactionRepository persists transactions and applies settlements atomically.
type TransactionRepository interface {
	Create(ctx context.Context, trx *models.Transaction) error
	AttachCharge(ctx context.Context, id string, gw models.Gateway) error
	MarkFailed(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error)
	// Settle marks the transaction paid and applies its side effects in one
	// database transaction. It reports false, writing nothing, when the
	// transaction is no longer pending.
	Settle(ctx context.Context, s Settlement) (bool, error)
	ListPending(ctx context.Context, since, now time.Time, limit int) ([]models.Transaction, error)
	ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]models.Transaction, int64, error)
	LogCallback(ctx context.Context, entry *models.CallbackLog) error
}

// AccountRepository reads the users and storefronts the reconciler needs.
type AccountRepository interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindCreatorModel(ctx context.Context, id string) (*models.CreatorModel, error)
}

// GormRepository implements TransactionRepository and AccountRepository.
type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, trx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(trx).Error
}

func (r *GormRepository) AttachCharge(ctx context.Context, id string, gw models.Gateway) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"gateway_provider":      gw.Provider,
			"gateway_payment_id":    gw.PaymentID,
			"gateway_qr_code":       gw.QRCode,
			"gateway_qr_code_image": gw.QRCodeImage,
			"gateway_expires_at":    gw.ExpiresAt,
		}).Error
}

func (r *GormRepository) MarkFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Update("status", models.StatusFailed).Error
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var trx models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&trx).Error; err != nil {
		return nil, mapNotFound(err, "Transaction")
	}
	return &trx, nil
}

func (r *GormRepository) FindByPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	var trx models.Transaction
	err := r.db.WithContext(ctx).
		Where("gateway_payment_id = ?", paymentID).
		Order("created_at DESC").
		First(&trx).Error
	if err != nil {
		return nil, mapNotFound(err, "Transaction")
	}
	return &trx, nil
}

func (r *GormRepository) Settle(ctx context.Context, s Settlement) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", s.TransactionID, models.StatusPending).
			Updates(map[string]interface{}{
				"status":  models.StatusPaid,
				"paid_at": s.PaidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var trx models.Transaction
		if err := tx.Where("id = ?", s.TransactionID).First(&trx).Error; err != nil {
			return mapNotFound(err, "Transaction")
		}

		var owner models.User
		if err := tx.Select("id").Where("id = ?", trx.OwnerID).First(&owner).Error; err != nil {
			return mapNotFound(err, "User")
		}

		switch trx.Kind {
		case models.KindSubscriptionUpgrade:
			expiration := s.PaidAt.Add(s.ProDuration)
			if err := tx.Model(&models.User{}).Where("id = ?", trx.OwnerID).
				Updates(map[string]interface{}{
					"plan":            models.UserPlanPro,
					"plan_expiration": expiration,
				}).Error; err != nil {
				return err
			}

		case models.KindContentSale:
			if trx.ModelID == nil {
				return invalid("content sale %s has no model", trx.ID)
			}
			var model models.CreatorModel
			if err := tx.Select("id").Where("id = ?", *trx.ModelID).First(&model).Error; err != nil {
				return mapNotFound(err, "Model")
			}
			if err := tx.Model(&models.CreatorModel{}).Where("id = ?", *trx.ModelID).
				UpdateColumns(map[string]interface{}{
					"stats_sales":         gorm.Expr("stats_sales + ?", 1),
					"stats_total_revenue": gorm.Expr("stats_total_revenue + ?", trx.NetAmount),
				}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", trx.OwnerID).
				UpdateColumn("balance_pending", gorm.Expr("balance_pending + ?", trx.NetAmount)).Error; err != nil {
				return err
			}

		default:
			return invalid("unknown transaction kind %q", trx.Kind)
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *GormRepository) ListPending(ctx context.Context, since, now time.Time, limit int) ([]models.Transaction, error) {
	var trxs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND gateway_payment_id <> '' AND gateway_payment_id IS NOT NULL", models.StatusPending).
		Where("created_at >= ?", since).
		Where("(gateway_expires_at IS NULL OR gateway_expires_at > ?)", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&trxs).Error
	return trxs, err
}

func (r *GormRepository) ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]models.Transaction, int64, error) {
	var (
		trxs  []models.Transaction
		total int64
	)
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	err = r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Omit("gateway_qr_code_image").
		Order("created_at DESC").
		Offset(common.Offset(page, limit)).
		Limit(limit).
		Find(&trxs).Error
	return trxs, total, err
}

func (r *GormRepository) LogCallback(ctx context.Context, entry *models.CallbackLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormRepository) FindUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapNotFound(err, "User")
	}
	return &user, nil
}

func (r *GormRepository) FindCreatorModel(ctx context.Context, id string) (*models.CreatorModel, error) {
	var model models.CreatorModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, mapNotFound(err, "Model")
	}
	return &model, nil
}

func mapNotFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity)
	}
	return err
}
