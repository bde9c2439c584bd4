package portone

import (
	"errors"
	"fmt"
	"time"
)

const CurrencyKRW = "KRW"

var (
	// ErrOutcomeUnknown means the request may or may not have been applied by
	// the gateway (timeout, connection reset, 5xx). Callers must query the
	// payment before retrying or compensating.
	ErrOutcomeUnknown = errors.New("portone: outcome unknown")

	ErrNotFound      = errors.New("portone: not found")
	ErrAlreadyExists = errors.New("portone: already exists")
)

type PaymentStatus string

const (
	PaymentStatusReady            PaymentStatus = "READY"
	PaymentStatusPending          PaymentStatus = "PENDING"
	PaymentStatusPaid             PaymentStatus = "PAID"
	PaymentStatusFailed           PaymentStatus = "FAILED"
	PaymentStatusPartialCancelled PaymentStatus = "PARTIAL_CANCELLED"
	PaymentStatusCancelled        PaymentStatus = "CANCELLED"
)

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	Status  int    `json:"-"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("portone: %d %s: %s", e.Status, e.Type, e.Message)
}

// Is lets callers test server-side failures with errors.Is(err, ErrOutcomeUnknown).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrOutcomeUnknown:
		return e.Status >= 500
	case ErrNotFound:
		return e.Status == 404
	case ErrAlreadyExists:
		return e.Status == 409
	}
	return false
}

type CustomerName struct {
	Full string `json:"full,omitempty"`
}

type Customer struct {
	ID          string        `json:"id,omitempty"`
	Name        *CustomerName `json:"name,omitempty"`
	Email       string        `json:"email,omitempty"`
	PhoneNumber string        `json:"phoneNumber,omitempty"`
}

type CardCredential struct {
	Number                            string `json:"number"`
	ExpiryYear                        string `json:"expiryYear"`
	ExpiryMonth                       string `json:"expiryMonth"`
	BirthOrBusinessRegistrationNumber string `json:"birthOrBusinessRegistrationNumber,omitempty"`
	PasswordTwoDigits                 string `json:"passwordTwoDigits,omitempty"`
}

type Amount struct {
	Total   int64  `json:"total"`
	TaxFree int64  `json:"taxFree,omitempty"`
	Vat     *int64 `json:"vat,omitempty"`
}

// PaymentMethod selects how a one-time payment is charged: a stored billing
// key, or card credentials passed through once.
type PaymentMethod struct {
	BillingKey string
	Card       *CardCredential
}

type OneTimePaymentRequest struct {
	OrderName string
	Amount    int64
	Method    PaymentMethod
	Customer  *Customer
}

type PaymentResult struct {
	PaymentID     string
	TransactionID string
	PaidAt        *time.Time
}

type Payment struct {
	ID            string        `json:"id"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId"`
	PgTxID        string        `json:"pgTxId"`
	Amount        Amount        `json:"amount"`
}

type BillingKeyRequest struct {
	Customer *Customer      `json:"customer,omitempty"`
	Card     CardCredential `json:"-"`
}

type BillingKeyInfo struct {
	BillingKey string `json:"billingKey"`
	Status     string `json:"status"`
}

type ScheduleRequest struct {
	BillingKey string
	OrderName  string
	Amount     int64
	Customer   *Customer
	TimeToPay  time.Time
}

type ScheduleResult struct {
	ScheduleID string
}

type RevokeSchedulesResult struct {
	RevokedScheduleIDs []string `json:"revokedScheduleIds"`
}

// CancelRequest: a nil Amount cancels the whole payment.
type CancelRequest struct {
	Amount        *int64
	TaxFreeAmount *int64
	VatAmount     *int64
	Reason        string
}

const (
	CancellationSucceeded = "SUCCEEDED"
	CancellationRequested = "REQUESTED"
	CancellationFailed    = "FAILED"
)

type CancelResult struct {
	CancellationID string
	Status         string
}

// Succeeded reports whether the money is back with the customer.
func (r *CancelResult) Succeeded() bool {
	return r != nil && r.Status == CancellationSucceeded
}

// Pending reports a cancellation the PG accepted but has not applied yet.
func (r *CancelResult) Pending() bool {
	return r != nil && r.Status == CancellationRequested
}
