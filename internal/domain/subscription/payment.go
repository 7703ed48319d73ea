package subscription

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentRecord is one append-only entry in the subscription's payment
// history.
type PaymentRecord struct {
	id             uint
	subscriptionID uint
	paidAt         time.Time
	amount         decimal.Decimal
	method         string
	transactionRef string
	status         PaymentStatus
}

func NewPaymentRecord(amount decimal.Decimal, method, transactionRef string, paidAt time.Time) (*PaymentRecord, error) {
	if amount.IsNegative() {
		return nil, errors.New("payment amount cannot be negative")
	}
	if transactionRef == "" {
		return nil, errors.New("transaction reference is required")
	}
	if method == "" {
		method = "gateway"
	}
	return &PaymentRecord{
		paidAt:         paidAt,
		amount:         amount,
		method:         method,
		transactionRef: transactionRef,
		status:         PaymentStatusCompleted,
	}, nil
}

// ReconstructPaymentRecord rebuilds a persisted payment row.
func ReconstructPaymentRecord(id, subscriptionID uint, amount decimal.Decimal,
	method, transactionRef string, status PaymentStatus, paidAt time.Time) (*PaymentRecord, error) {

	if id == 0 {
		return nil, errors.New("payment ID cannot be zero")
	}
	if subscriptionID == 0 {
		return nil, errors.New("subscription ID cannot be zero")
	}
	return &PaymentRecord{
		id:             id,
		subscriptionID: subscriptionID,
		paidAt:         paidAt,
		amount:         amount,
		method:         method,
		transactionRef: transactionRef,
		status:         status,
	}, nil
}

func (p *PaymentRecord) ID() uint                { return p.id }
func (p *PaymentRecord) SubscriptionID() uint    { return p.subscriptionID }
func (p *PaymentRecord) PaidAt() time.Time       { return p.paidAt }
func (p *PaymentRecord) Amount() decimal.Decimal { return p.amount }
func (p *PaymentRecord) Method() string          { return p.method }
func (p *PaymentRecord) TransactionRef() string  { return p.transactionRef }
func (p *PaymentRecord) Status() PaymentStatus   { return p.status }

// BindTo stamps the owning subscription ID on a pending record at persist time.
func (p *PaymentRecord) BindTo(subscriptionID uint) {
	if p.subscriptionID == 0 {
		p.subscriptionID = subscriptionID
	}
}
