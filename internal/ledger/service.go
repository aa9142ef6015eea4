package ledger

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/awonak/pool-party/internal/domain"
)

const maxDescriptionLength = 500

// Result is returned by every money-moving operation.
type Result struct {
	PaymentID    string
	Pools        []domain.FundingPool
	Transactions []domain.Transaction
}

// CapturedDonation is a donation whose total was confirmed by the payment provider.
type CapturedDonation struct {
	CaptureID   string
	Total       decimal.Decimal
	Entries     []domain.AllocationEntry
	Description string
	Anonymous   bool
	Actor       domain.Actor
}

// ExternalDonation is money received outside the in-app payment flow and
// recorded by a moderator. Total defaults to the sum of the entries.
type ExternalDonation struct {
	Total       *decimal.Decimal
	Entries     []domain.AllocationEntry
	Description string
	Actor       domain.Actor
}

// Withdrawal takes money out of one or more pools. Total defaults to the sum
// of the entries.
type Withdrawal struct {
	Total       *decimal.Decimal
	Entries     []domain.AllocationEntry
	Description string
	Actor       domain.Actor
}

// Service runs the donation and withdrawal flows.
type Service struct {
	recorder *Recorder
	minimum  decimal.Decimal
	logger   zerolog.Logger
	newID    func() string
}

// NewService builds the flows around a recorder. minimum applies to every donation.
func NewService(recorder *Recorder, minimum decimal.Decimal, logger zerolog.Logger) *Service {
	return &Service{
		recorder: recorder,
		minimum:  domain.RoundAmount(minimum),
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Minimum returns the smallest accepted donation total.
func (s *Service) Minimum() decimal.Decimal {
	return s.minimum
}

// Recorder exposes the underlying ledger reader.
func (s *Service) Recorder() *Recorder {
	return s.recorder
}

// CaptureDonation records a provider-confirmed donation.
func (s *Service) CaptureDonation(ctx context.Context, in CapturedDonation) (Result, error) {
	desc, err := optionalDescription(in.Description)
	if err != nil {
		return Result{}, err
	}
	paymentID := strings.TrimSpace(in.CaptureID)
	if paymentID == "" {
		paymentID = s.newID()
	}
	return s.apply(ctx, Plan{
		Type:        domain.TransactionDeposit,
		Origin:      domain.OriginCapture,
		PaymentID:   paymentID,
		Actor:       in.Actor,
		Description: desc,
		Anonymous:   in.Anonymous,
		Request:     domain.AllocationRequest{Total: in.Total, Entries: in.Entries},
		Validate:    s.validateDeposit,
	})
}

// RecordExternalDonation records a donation made outside the payment flow.
func (s *Service) RecordExternalDonation(ctx context.Context, in ExternalDonation) (Result, error) {
	desc, err := requiredDescription(in.Description, "an external donation needs a description")
	if err != nil {
		return Result{}, err
	}
	req := domain.AllocationRequest{Entries: in.Entries}
	req.Total = totalOrSum(in.Total, req)
	return s.apply(ctx, Plan{
		Type:        domain.TransactionDeposit,
		Origin:      domain.OriginExternal,
		PaymentID:   s.newID(),
		Actor:       in.Actor,
		Description: desc,
		Request:     req,
		Validate:    s.validateDeposit,
	})
}

// RecordWithdrawal takes money out of pools. Balance checks happen while the
// pools are locked, so concurrent withdrawals cannot jointly overdraw a pool.
func (s *Service) RecordWithdrawal(ctx context.Context, in Withdrawal) (Result, error) {
	description := in.Description
	if err := checkDescriptionLength(description); err != nil {
		return Result{}, err
	}
	req := domain.AllocationRequest{Entries: in.Entries}
	req.Total = totalOrSum(in.Total, req)
	desc := strings.TrimSpace(description)
	return s.apply(ctx, Plan{
		Type:        domain.TransactionWithdrawal,
		Origin:      domain.OriginWithdrawal,
		PaymentID:   s.newID(),
		Actor:       in.Actor,
		Description: &desc,
		Request:     req,
		Validate: func(req domain.AllocationRequest, pools domain.Pools) ([]domain.AllocationEntry, error) {
			return ValidateWithdrawal(req, description, pools)
		},
	})
}

func (s *Service) validateDeposit(req domain.AllocationRequest, pools domain.Pools) ([]domain.AllocationEntry, error) {
	return ValidateDeposit(req, s.minimum, pools)
}

func (s *Service) apply(ctx context.Context, plan Plan) (Result, error) {
	applied, err := s.recorder.Apply(ctx, plan)
	if err != nil {
		return Result{}, err
	}
	return Result{PaymentID: plan.PaymentID, Pools: applied.Pools, Transactions: applied.Transactions}, nil
}

func totalOrSum(total *decimal.Decimal, req domain.AllocationRequest) decimal.Decimal {
	if total != nil {
		return *total
	}
	return req.Sum()
}

func optionalDescription(s string) (*string, error) {
	if err := checkDescriptionLength(s); err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

func requiredDescription(s, message string) (*string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, domain.NewError(domain.ErrMissingDescription, message).OnField("description")
	}
	return optionalDescription(s)
}

func checkDescriptionLength(s string) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) > maxDescriptionLength {
		return domain.NewError(domain.ErrValidation, fmt.Sprintf("description must be at most %d characters", maxDescriptionLength)).OnField("description")
	}
	return nil
}
