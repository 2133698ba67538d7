package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"creator-payments/internal/models"
)

var (
	attachAttempts = 3
	attachBackoff  = 100 * time.Millisecond
)

const (
	upgradeDescription = "Assinatura PRO - Plano Mensal"
	upgradeReference   = "prod_pro_monthly"
)

var planNames = map[models.Plan]string{
	models.PlanWeekly:  "Semanal",
	models.PlanMonthly: "Mensal",
	models.PlanAnnual:  "Anual",
}

type BuyerDTO struct {
	Name      string `json:"name" binding:"required,max=255"`
	Email     string `json:"email" binding:"required,email"`
	Cellphone string `json:"cellphone" binding:"omitempty,max=30"`
	TaxID     string `json:"taxId" binding:"omitempty,taxid"`
}

type OpenTransactionDTO struct {
	OwnerID           string
	ModelID           *string
	Kind              models.TransactionKind
	Plan              models.Plan
	Amount            int64
	PayerTier         models.UserPlan
	Buyer             BuyerDTO
	Description       string
	ExternalReference string
	Metadata          map[string]string
}

type ContentSaleDTO struct {
	ModelID string
	Plan    models.Plan
	Buyer   BuyerDTO
}

// OpenedCharge is a pending transaction together with the charge issued for it.
type OpenedCharge struct {
	Transaction *models.Transaction
	Charge      *Charge
}

type Confirmation struct {
	Applied bool
	PaidAt  *time.Time
}

type WebhookResult struct {
	Event         string
	PaymentID     string
	TransactionID string
	Ignored       bool
	Applied       bool
}

type PollResult struct {
	TransactionID string
	Kind          models.TransactionKind
	Status        string
	PaidAt        *time.Time
	ExpiresAt     *time.Time
}

type PaymentOptions struct {
	UpgradePrice int64
	ProDuration  time.Duration
	ChargeExpiry time.Duration
}

// PaymentService opens transactions and reconciles them with the processor.
// Webhook deliveries, status polls and the background sweep all settle
// through ConfirmPaid.
type PaymentService struct {
	Transactions TransactionRepository
	Accounts     AccountRepository
	Gateway      PaymentGateway
	Verifier     WebhookVerifier
	Fees         *FeeCalculator
	StatusCache  StatusCache
	Options      PaymentOptions
	Now          func() time.Time
}

func NewPaymentService(
	transactions TransactionRepository,
	accounts AccountRepository,
	gateway PaymentGateway,
	verifier WebhookVerifier,
	fees *FeeCalculator,
	opts PaymentOptions,
) *PaymentService {
	return &PaymentService{
		Transactions: transactions,
		Accounts:     accounts,
		Gateway:      gateway,
		Verifier:     verifier,
		Fees:         fees,
		Options:      opts,
		Now:          time.Now,
	}
}

func (s *PaymentService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// OpenTransaction persists a pending transaction and requests its charge.
// If the processor refuses, the transaction ends up failed and the
// GatewayError is returned.
func (s *PaymentService) OpenTransaction(ctx context.Context, param OpenTransactionDTO) (*OpenedCharge, error) {
	if !param.Plan.Valid() {
		return nil, invalid("invalid plan %q", param.Plan)
	}

	var (
		split Split
		err   error
	)
	switch param.Kind {
	case models.KindContentSale:
		if param.ModelID == nil || *param.ModelID == "" {
			return nil, invalid("modelId is required for content sales")
		}
		split, err = s.Fees.ComputeSplit(param.Amount, param.PayerTier)
	case models.KindSubscriptionUpgrade:
		param.ModelID = nil
		split, err = s.Fees.UpgradeSplit(param.Amount)
	default:
		return nil, invalid("invalid transaction kind %q", param.Kind)
	}
	if err != nil {
		return nil, err
	}

	trx := &models.Transaction{
		ID:                 uuid.NewString(),
		OwnerID:            param.OwnerID,
		ModelID:            param.ModelID,
		Kind:               param.Kind,
		Plan:               param.Plan,
		Amount:             param.Amount,
		PlatformFeePercent: split.Percent,
		PlatformFee:        split.Fee,
		NetAmount:          split.Net,
		Status:             models.StatusPending,
		Buyer:              models.Buyer{Name: param.Buyer.Name, Email: param.Buyer.Email},
		Gateway:            models.Gateway{Provider: ProviderAbacatePay},
		CreatedAt:          s.now(),
	}
	if err := s.Transactions.Create(ctx, trx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"transaction_id": trx.ID,
		"owner_id":       trx.OwnerID,
		"kind":           trx.Kind,
	})

	charge, err := s.Gateway.CreateCharge(ctx, ChargeRequest{
		Amount: trx.Amount,
		Customer: Customer{
			Name:      param.Buyer.Name,
			Cellphone: param.Buyer.Cellphone,
			Email:     param.Buyer.Email,
			TaxID:     param.Buyer.TaxID,
		},
		Description:       param.Description,
		ExternalReference: param.ExternalReference,
		ExpiresIn:         s.Options.ChargeExpiry,
		Metadata:          param.Metadata,
	})
	if err != nil {
		log.WithError(err).Error("charge creation failed")
		// the request context may already be done; the transaction must still be closed
		if markErr := s.Transactions.MarkFailed(context.WithoutCancel(ctx), trx.ID); markErr != nil {
			log.WithError(markErr).Error("failed to mark transaction as failed")
		}
		trx.Status = models.StatusFailed
		return nil, err
	}

	trx.Gateway = models.Gateway{
		Provider:    ProviderAbacatePay,
		PaymentID:   charge.PaymentID,
		QRCode:      charge.QRCode,
		QRCodeImage: charge.QRCodeImageBase64,
		ExpiresAt:   charge.ExpiresAt,
	}
	if err := s.attachCharge(context.WithoutCancel(ctx), trx); err != nil {
		// the charge exists at the processor but cannot be matched to this row
		log.WithError(err).WithFields(logrus.Fields{
			"payment_id": charge.PaymentID,
			"amount":     trx.Amount,
			"expires_at": charge.ExpiresAt,
		}).Error("failed to persist charge details, manual reconciliation required")
		return nil, fmt.Errorf("attach charge: %w", err)
	}

	log.WithField("payment_id", charge.PaymentID).Info("transaction opened")
	return &OpenedCharge{Transaction: trx, Charge: charge}, nil
}

func (s *PaymentService) attachCharge(ctx context.Context, trx *models.Transaction) error {
	var err error
	for attempt := 1; attempt <= attachAttempts; attempt++ {
		if err = s.Transactions.AttachCharge(ctx, trx.ID, trx.Gateway); err == nil {
			return nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"transaction_id": trx.ID,
			"payment_id":     trx.Gateway.PaymentID,
			"attempt":        attempt,
		}).Warn("attach charge failed")
		if attempt < attachAttempts {
			time.Sleep(time.Duration(attempt) * attachBackoff)
		}
	}
	return err
}

// CreateContentSaleCharge sells access to a model's pricing tier. The fee
// depends on the model owner's plan.
func (s *PaymentService) CreateContentSaleCharge(ctx context.Context, param ContentSaleDTO) (*OpenedCharge, error) {
	if param.ModelID == "" {
		return nil, invalid("modelId, plan and buyer are required")
	}
	model, err := s.Accounts.FindCreatorModel(ctx, param.ModelID)
	if err != nil {
		return nil, err
	}

	pricing, ok := model.Pricing(param.Plan)
	if !ok || !pricing.Enabled {
		return nil, invalid("Plan not available")
	}

	owner, err := s.Accounts.FindUser(ctx, model.OwnerID)
	if err != nil {
		return nil, err
	}

	modelID := model.ID
	return s.OpenTransaction(ctx, OpenTransactionDTO{
		OwnerID:           owner.ID,
		ModelID:           &modelID,
		Kind:              models.KindContentSale,
		Plan:              param.Plan,
		Amount:            pricing.Price,
		PayerTier:         s.effectiveTier(owner),
		Buyer:             param.Buyer,
		Description:       planNames[param.Plan] + " - Acesso ao conteúdo",
		ExternalReference: fmt.Sprintf("model_%s_%s", model.ID, param.Plan),
		Metadata: map[string]string{
			"modelId": model.ID,
			"plan":    string(param.Plan),
		},
	})
}

// CreateUpgradeCharge opens a pro subscription charge for the user, refusing
// with AlreadyActiveError while an earlier upgrade is still valid.
func (s *PaymentService) CreateUpgradeCharge(ctx context.Context, userID string) (*OpenedCharge, error) {
	user, err := s.Accounts.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.HasActivePro(s.now()) {
		return nil, &AlreadyActiveError{PlanExpiration: *user.PlanExpiration}
	}

	name := user.Name
	if user.LastName != "" {
		name += " " + user.LastName
	}

	return s.OpenTransaction(ctx, OpenTransactionDTO{
		OwnerID:   user.ID,
		Kind:      models.KindSubscriptionUpgrade,
		Plan:      models.PlanMonthly,
		Amount:    s.Options.UpgradePrice,
		Buyer: BuyerDTO{
			Name:      name,
			Email:     user.Email,
			Cellphone: user.Whatsapp,
		},
		Description:       upgradeDescription,
		ExternalReference: upgradeReference,
		Metadata: map[string]string{
			"type":   string(models.KindSubscriptionUpgrade),
			"userId": user.ID,
		},
	})
}

// effectiveTier uses the same rule as the upgrade guard: a pro plan without a
// future expiration is billed as freemium.
func (s *PaymentService) effectiveTier(u *models.User) models.UserPlan {
	if u.HasActivePro(s.now()) {
		return models.UserPlanPro
	}
	return models.UserPlanFreemium
}

// ConfirmPaid moves a pending transaction to paid and applies its side
// effects exactly once. Callers racing on the same transaction are serialized
// by the conditional status update; all but one get Applied=false.
func (s *PaymentService) ConfirmPaid(ctx context.Context, trx *models.Transaction) (*Confirmation, error) {
	if trx.IsPaid() {
		return &Confirmation{Applied: false, PaidAt: trx.PaidAt}, nil
	}

	paidAt := s.now()
	applied, err := s.Transactions.Settle(ctx, Settlement{
		TransactionID: trx.ID,
		PaidAt:        paidAt,
		ProDuration:   s.Options.ProDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("settle transaction %s: %w", trx.ID, err)
	}

	log := logrus.WithFields(logrus.Fields{
		"transaction_id": trx.ID,
		"owner_id":       trx.OwnerID,
		"kind":           trx.Kind,
	})

	if !applied {
		current, err := s.Transactions.FindByID(ctx, trx.ID)
		if err != nil {
			return nil, err
		}
		log.WithField("status", current.Status).Info("transaction already settled")
		return &Confirmation{Applied: false, PaidAt: current.PaidAt}, nil
	}

	trx.Status = models.StatusPaid
	trx.PaidAt = &paidAt
	log.WithField("net_amount", trx.NetAmount).Info("transaction paid")
	return &Confirmation{Applied: true, PaidAt: &paidAt}, nil
}

// ReconcileFromWebhook authenticates and applies a processor webhook. Events
// other than billing.paid are acknowledged and ignored.
func (s *PaymentService) ReconcileFromWebhook(ctx context.Context, raw []byte, presented string) (*WebhookResult, error) {
	if s.Verifier == nil || !s.Verifier.Verify(raw, presented) {
		logrus.Warn("webhook rejected: invalid credentials")
		return nil, ErrUnauthorized
	}

	result := &WebhookResult{}
	var outcome error
	defer func() {
		s.logCallback(ctx, raw, result, outcome)
	}()

	evt, err := ParseWebhookEvent(raw)
	if err != nil {
		outcome = err
		return nil, err
	}
	result.Event = evt.Event

	if evt.Event != EventBillingPaid {
		result.Ignored = true
		return result, nil
	}

	result.PaymentID = evt.PaymentID()
	if result.PaymentID == "" {
		outcome = invalid("Payment ID not found")
		return nil, outcome
	}

	trx, err := s.Transactions.FindByPaymentID(ctx, result.PaymentID)
	if err != nil {
		outcome = err
		return nil, err
	}
	result.TransactionID = trx.ID

	conf, err := s.ConfirmPaid(ctx, trx)
	if err != nil {
		outcome = err
		return nil, err
	}
	result.Applied = conf.Applied
	return result, nil
}

func (s *PaymentService) logCallback(ctx context.Context, raw []byte, result *WebhookResult, outcome error) {
	entry := &models.CallbackLog{
		Provider:      ProviderAbacatePay,
		Event:         result.Event,
		PaymentID:     result.PaymentID,
		TransactionID: result.TransactionID,
		Request:       string(raw),
		Status:        1,
	}

	var response interface{}
	switch {
	case outcome != nil:
		entry.Status = 0
		response = map[string]interface{}{"error": outcome.Error()}
	case result.Ignored:
		response = map[string]interface{}{"received": true, "ignored": true}
	default:
		response = map[string]interface{}{"received": true, "applied": result.Applied}
	}
	respBytes, _ := json.Marshal(response)
	entry.Response = string(respBytes)

	if err := s.Transactions.LogCallback(context.WithoutCancel(ctx), entry); err != nil {
		logrus.WithError(err).WithField("payment_id", result.PaymentID).Error("failed to record webhook callback")
	}
}

// ReconcileFromPoll checks a transaction against the processor. Paid
// transactions are answered from storage without calling the processor.
func (s *PaymentService) ReconcileFromPoll(ctx context.Context, transactionID string) (*PollResult, error) {
	trx, err := s.Transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, trx)
}

func (s *PaymentService) reconcile(ctx context.Context, trx *models.Transaction) (*PollResult, error) {
	result := &PollResult{TransactionID: trx.ID, Kind: trx.Kind}

	if trx.IsPaid() {
		result.Status = string(models.StatusPaid)
		result.PaidAt = trx.PaidAt
		return result, nil
	}

	paymentID := trx.Gateway.PaymentID
	if paymentID == "" {
		return nil, invalid("Payment ID not found")
	}

	if s.StatusCache != nil {
		if cached, ok := s.StatusCache.Get(ctx, paymentID); ok {
			result.Status = cached.Status
			result.ExpiresAt = cached.ExpiresAt
			return result, nil
		}
	}

	status, err := s.Gateway.CheckStatus(ctx, paymentID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"transaction_id": trx.ID,
			"payment_id":     paymentID,
		}).Warn("status check failed")
		return nil, err
	}

	if status.Status == GatewayStatusPaid {
		conf, err := s.ConfirmPaid(ctx, trx)
		if err != nil {
			return nil, err
		}
		result.Status = string(models.StatusPaid)
		result.PaidAt = conf.PaidAt
		return result, nil
	}

	if s.StatusCache != nil {
		s.StatusCache.Set(ctx, paymentID, status)
	}
	result.Status = status.Status
	result.ExpiresAt = status.ExpiresAt
	return result, nil
}

// PendingForReconciliation lists pending transactions with a live charge
// created within lookback.
func (s *PaymentService) PendingForReconciliation(ctx context.Context, lookback time.Duration, limit int) ([]models.Transaction, error) {
	now := s.now()
	return s.Transactions.ListPending(ctx, now.Add(-lookback), now, limit)
}

func (s *PaymentService) Balance(ctx context.Context, userID string) (*models.Balance, error) {
	user, err := s.Accounts.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user.Balance, nil
}

func (s *PaymentService) ListTransactions(ctx context.Context, userID string, page, limit int) ([]models.Transaction, int64, error) {
	return s.Transactions.ListByOwner(ctx, userID, page, limit)
}

// IsGatewayError reports whether err came from the payment processor.
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
