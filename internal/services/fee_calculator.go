package services

import (
	"github.com/shopspring/decimal"

	"creator-payments/internal/models"
)

// Split is the platform/creator division of a gross amount.
type Split struct {
	Percent int64
	Fee     int64
	Net     int64
}

// FeeCalculator derives platform fees for content sales from the payee's plan.
type FeeCalculator struct {
	ProPercent      int64
	FreemiumPercent int64
}

func NewFeeCalculator(proPercent, freemiumPercent int64) *FeeCalculator {
	return &FeeCalculator{ProPercent: proPercent, FreemiumPercent: freemiumPercent}
}

// PercentFor returns the fee percentage charged to a creator on the given plan.
func (f *FeeCalculator) PercentFor(tier models.UserPlan) int64 {
	if tier == models.UserPlanPro {
		return f.ProPercent
	}
	return f.FreemiumPercent
}

// ComputeSplit rounds the fee half-up on minor units, so Fee+Net always equals amount.
func (f *FeeCalculator) ComputeSplit(amount int64, tier models.UserPlan) (Split, error) {
	if amount < 0 {
		return Split{}, ErrInvalidAmount
	}
	pct := f.PercentFor(tier)
	fee := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(pct)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	return Split{Percent: pct, Fee: fee, Net: amount - fee}, nil
}

// UpgradeSplit keeps the full amount as platform revenue.
func (f *FeeCalculator) UpgradeSplit(amount int64) (Split, error) {
	if amount < 0 {
		return Split{}, ErrInvalidAmount
	}
	return Split{Percent: 0, Fee: 0, Net: amount}, nil
}
