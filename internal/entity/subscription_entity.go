package entity

import (
	"time"

	"subshare-be/pkg/proration"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCanceled  SubscriptionStatus = "canceled"
)

// OpenSubscriptionStatuses are the statuses that occupy the
// (participant, service instance) slot.
var OpenSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusPending,
	SubscriptionStatusActive,
	SubscriptionStatusSuspended,
}

type CancelMode string

const (
	CancelModeAuto      CancelMode = "auto"
	CancelModeNow       CancelMode = "now"
	CancelModePeriodEnd CancelMode = "period_end"
)

// Outcome of a cancellation, reported in events and responses. Finalized
// marks a scheduled cancellation taking effect.
const (
	CancellationImmediate = "immediate"
	CancellationScheduled = "scheduled"
	CancellationFinalized = "finalized"
)

const (
	// SweepWindow is how far ahead of a period end the renewal charge is issued.
	SweepWindow = 5 * 24 * time.Hour

	// MaxStartDateSkew bounds how far a new subscription's start date may be
	// from now in either direction.
	MaxStartDateSkew = 365 * 24 * time.Hour
)

type Subscription struct {
	Id                 uuid.UUID
	ParticipantId      uuid.UUID
	ServiceInstanceId  uuid.UUID
	Frequency          proration.Frequency
	MonthlyUnitPrice   decimal.Decimal
	Status             SubscriptionStatus
	StartDate          time.Time
	CancellationDate   *time.Time
	CancellationReason *string
	CanceledBy         *string
	Prepaid            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CancellationScheduled reports a deferred cancellation that has not taken
// effect yet.
func (s *Subscription) CancellationScheduled() bool {
	return s.CancellationDate != nil && s.Status != SubscriptionStatusCanceled
}

func (s *Subscription) IsOpen() bool {
	return s.Status != SubscriptionStatusCanceled
}
