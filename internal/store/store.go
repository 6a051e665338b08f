// Package store is the ledger persistence layer: accounts (internal and
// external), the append-only transaction log, and complaints. Two
// implementations exist, one on Postgres and one in memory.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/banksecure/paysim/internal/errcode"
	"github.com/banksecure/paysim/internal/models"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrAccountNotFound         = errors.New("account not found")
	ErrExternalAccountNotFound = errors.New("external account not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrComplaintNotFound       = errors.New("complaint not found")
)

// Ledger is the store contract the transaction simulator and the complaint
// resolver run against. Reads return the sentinel errors above when a row is
// missing; writes are attributable to one account or transaction and are
// retryable where idempotent.
type Ledger interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetAccountByUserID(ctx context.Context, userID int64) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*models.Account, error)
	GetExternalAccount(ctx context.Context, number string) (*models.ExternalAccount, error)

	UpdateAccountBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal) error
	UpdateExternalAccountBalance(ctx context.Context, number string, newBalance decimal.Decimal) error

	InsertTransaction(ctx context.Context, txn *models.Transaction) (int64, error)
	GetTransactionByRef(ctx context.Context, ref string) (*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, ref string, status models.TxnStatus, code errcode.Code) error
	// ListTransactionsByAccount returns up to limit rows, newest first.
	ListTransactionsByAccount(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error)

	InsertComplaint(ctx context.Context, c *models.Complaint) (int64, error)
	GetComplaintByRef(ctx context.Context, ref string) (*models.Complaint, error)
	UpdateComplaint(ctx context.Context, ref string, status models.ComplaintStatus, notes string, refundRef string) error
	// ListComplaints returns complaints newest first; an empty status
	// matches all of them.
	ListComplaints(ctx context.Context, status models.ComplaintStatus) ([]models.Complaint, error)
}
