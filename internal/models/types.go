package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/banksecure/paysim/internal/errcode"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
	AccountBlocked  AccountStatus = "blocked"
)

// User owns exactly one account in this system.
type User struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Account is a ledger account held by a user of this bank.
type Account struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Status        AccountStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ExternalAccount is a receiver account at another bank. Same invariants as
// Account, separate namespace.
type ExternalAccount struct {
	AccountNumber string          `json:"account_number"`
	HolderName    string          `json:"account_holder_name"`
	BankName      string          `json:"bank_name"`
	Status        AccountStatus   `json:"status"`
	Balance       decimal.Decimal `json:"balance"`
}

// TxnType classifies a transaction row.
type TxnType string

const (
	TxnTransfer       TxnType = "transfer"
	TxnCredit         TxnType = "credit"
	TxnDeposit        TxnType = "deposit"
	TxnRefund         TxnType = "refund"
	TxnFailedTransfer TxnType = "failed_transfer"
)

// TxnStatus is the state of a transaction. A row is created pending and
// mutated exactly once more to a terminal status; refunded is reached from
// failed or pending when a complaint triggers a refund.
type TxnStatus string

const (
	TxnPending   TxnStatus = "pending"
	TxnCompleted TxnStatus = "completed"
	TxnFailed    TxnStatus = "failed"
	TxnRefunded  TxnStatus = "refunded"
)

// Transaction is one immutable leg of the transaction log, with the balance
// recorded before and after the mutation it describes.
type Transaction struct {
	ID            int64           `json:"id"`
	Ref           string          `json:"transaction_id"`
	AccountID     int64           `json:"account_id"`
	Type          TxnType         `json:"transaction_type"`
	Amount        decimal.Decimal `json:"amount"`
	BeforeBalance decimal.Decimal `json:"before_balance"`
	AfterBalance  decimal.Decimal `json:"after_balance"`
	Counterparty  string          `json:"counterparty"`
	Status        TxnStatus       `json:"status"`
	ErrorCode     errcode.Code    `json:"error_code,omitempty"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ComplaintStatus is the state of a complaint: processing until the resolver
// reaches one of the three terminal states.
type ComplaintStatus string

const (
	ComplaintProcessing ComplaintStatus = "processing"
	ComplaintResolved   ComplaintStatus = "resolved"
	ComplaintEscalated  ComplaintStatus = "escalated"
	ComplaintClosed     ComplaintStatus = "closed"
)

// Complaint is a customer dispute tied to one transaction.
type Complaint struct {
	ID                   int64           `json:"id"`
	Ref                  string          `json:"complaint_id"`
	UserID               int64           `json:"user_id"`
	TransactionRef       string          `json:"transaction_id"`
	ErrorCode            errcode.Code    `json:"error_code,omitempty"`
	Description          string          `json:"description"`
	Priority             string          `json:"priority"`
	Status               ComplaintStatus `json:"status"`
	RootCause            string          `json:"root_cause"`
	ResolutionAction     string          `json:"resolution_action"`
	EstimatedResolution  string          `json:"estimated_resolution"`
	Notes                string          `json:"resolution_notes,omitempty"`
	RefundTransactionRef string          `json:"refund_transaction_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// TransferRequest is the payload from the client.
type TransferRequest struct {
	UserID          int64           `json:"user_id"`
	ReceiverAccount string          `json:"receiver_account"`
	ReceiverName    string          `json:"receiver_name"`
	Amount          decimal.Decimal `json:"amount"`
}

// TransferResult is the caller-facing outcome of a transfer attempt. Failures
// are structured results, not errors: callers branch on RequiresComplaint.
type TransferResult struct {
	TransactionID     string       `json:"transaction_id"`
	Success           bool         `json:"success"`
	Status            TxnStatus    `json:"status"`
	ErrorCode         errcode.Code `json:"error_code,omitempty"`
	Message           string       `json:"message"`
	RequiresComplaint bool         `json:"requires_complaint"`
	MoneyDebited      bool         `json:"money_debited"`
	Timestamp         time.Time    `json:"timestamp"`
}

// ComplaintRequest is the payload filing a dispute.
type ComplaintRequest struct {
	UserID         int64  `json:"user_id"`
	TransactionRef string `json:"transaction_id"`
	Description    string `json:"description"`
}

// ComplaintReceipt acknowledges a filed complaint; resolution is async.
type ComplaintReceipt struct {
	ComplaintID         string          `json:"complaint_id"`
	Status              ComplaintStatus `json:"status"`
	Priority            string          `json:"priority"`
	RootCause           string          `json:"root_cause"`
	ResolutionAction    string          `json:"resolution_action"`
	EstimatedResolution string          `json:"estimated_resolution"`
	Message             string          `json:"message"`
}

// ResolutionResult is the resolver's terminal verdict for a complaint.
type ResolutionResult struct {
	ComplaintID          string          `json:"complaint_id"`
	Status               ComplaintStatus `json:"status"`
	RefundTransactionRef string          `json:"refund_transaction_id,omitempty"`
	Message              string          `json:"message"`
}
