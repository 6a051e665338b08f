package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banksecure/paysim/internal/errcode"
	"github.com/banksecure/paysim/internal/models"
	"github.com/banksecure/paysim/internal/store"
)

// fixedInjector forces a specific post-debit outcome; "" means success.
type fixedInjector struct {
	code errcode.Code
}

func (f fixedInjector) Draw(decimal.Decimal) errcode.Code { return f.code }

func newTestExecutor(mem *store.Memory, code errcode.Code) *Executor {
	v := NewValidator(mem, ValidatorOpts{TxnLimit: 25000}, zap.NewNop())
	return NewExecutor(mem, v, fixedInjector{code: code}, NewKeyedLocks(), zap.NewNop())
}

func senderBalance(t *testing.T, mem *store.Memory) decimal.Decimal {
	t.Helper()
	acct, err := mem.GetAccountByID(context.Background(), 1)
	require.NoError(t, err)
	return acct.Balance
}

func TestTransferCompletesInternal(t *testing.T) {
	mem := newTestLedger()
	ex := newTestExecutor(mem, "")

	res, err := ex.Process(context.Background(), models.TransferRequest{
		UserID:          1,
		ReceiverAccount: "1000000002",
		ReceiverName:    "Priya Sharma",
		Amount:          decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, models.TxnCompleted, res.Status)
	assert.True(t, res.MoneyDebited)
	assert.False(t, res.RequiresComplaint)

	assert.True(t, senderBalance(t, mem).Equal(decimal.NewFromInt(800)))
	recv, err := mem.GetAccountByID(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, recv.Balance.Equal(decimal.NewFromInt(700)))

	// Debit leg carries the before/after audit trail.
	txn, err := mem.GetTransactionByRef(context.Background(), res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TxnCompleted, txn.Status)
	assert.True(t, txn.BeforeBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, txn.AfterBalance.Equal(decimal.NewFromInt(800)))

	// Receiver got a separate credit leg.
	credits := mem.Transactions(2)
	require.Len(t, credits, 1)
	assert.Equal(t, models.TxnCredit, credits[0].Type)
	assert.Equal(t, "1000000001", credits[0].Counterparty)
}

func TestTransferCompletesExternal(t *testing.T) {
	mem := newTestLedger()
	ex := newTestExecutor(mem, "")

	res, err := ex.Process(context.Background(), models.TransferRequest{
		UserID:          1,
		ReceiverAccount: "9876543210",
		ReceiverName:    "Ramesh Kumar",
		Amount:          decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	assert.True(t, senderBalance(t, mem).Equal(decimal.NewFromInt(700)))
	ext, err := mem.GetExternalAccount(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.True(t, ext.Balance.Equal(decimal.NewFromInt(75300)))
}

func TestTransferPreDebitRejectionLeavesBalanceUntouched(t *testing.T) {
	mem := newTestLedger()
	ex := newTestExecutor(mem, "")

	res, err := ex.Process(context.Background(), models.TransferRequest{
		UserID:          1,
		ReceiverAccount: "9999999999",
		ReceiverName:    "Ghost",
		Amount:          decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, errcode.ReceiverNotFound, res.ErrorCode)
	assert.False(t, res.MoneyDebited)
	assert.False(t, res.RequiresComplaint)

	assert.True(t, senderBalance(t, mem).Equal(decimal.NewFromInt(1000)))

	// A failed_transfer audit row exists; before equals after.
	txn, err := mem.GetTransactionByRef(context.Background(), res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TxnFailedTransfer, txn.Type)
	assert.Equal(t, models.TxnFailed, txn.Status)
	assert.Equal(t, errcode.ReceiverNotFound, txn.ErrorCode)
	assert.True(t, txn.BeforeBalance.Equal(txn.AfterBalance))
}

func TestTransferInsufficientBalance(t *testing.T) {
	mem := newTestLedger()
	ex := newTestExecutor(mem, "")

	res, err := ex.Process(context.Background(), models.TransferRequest{
		UserID:          1,
		ReceiverAccount: "9876543210",
		ReceiverName:    "Ramesh Kumar",
		Amount:          decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	assert.Equal(t, errcode.InsufficientBalance, res.ErrorCode)
	assert.False(t, res.MoneyDebited)
	assert.True(t, senderBalance(t, mem).Equal(decimal.NewFromInt(1000)))
}

func TestTransferLimitExceeded(t *testing.T) {
	mem := newTestLedger()
	mem.PutAccount(models.Account{ID: 1, UserID: 1, AccountNumber: "1000000001", Balance: decimal.NewFromInt(50000), Status: models.AccountActive})
	ex := newTestExecutor(mem, "")

	res, err := ex.Process(context.Background(), models.TransferRequest{
		UserID:          1,
		ReceiverAccount: "9876543210",
		ReceiverName:    "Ramesh Kumar",
		Amount:          decimal.NewFromInt(30000),
	})
	require.NoError(t, err)
	assert.Equal(t, errcode.LimitExceeded, res.ErrorCode)
	assert.False(t, res.MoneyDebited)
	assert.True(t, senderBalance(t, mem).Equal(decimal.NewFromInt(50000)))
}

func TestTransferPostDebitFailureKeepsDebit(t *testing.T) {
	mem := newTestLedger()
	ex := newTestExecutor(mem, errcode.ReversalInProgress)

	res, err := ex.Process(context.Background(), models.TransferRequest{
		UserID:          1,
		ReceiverAccount: "9876543210",
		ReceiverName:    "Ramesh Kumar",
		Amount:          decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, models.TxnFailed, res.Status)
	assert.Equal(t, errcode.ReversalInProgress, res.ErrorCode)
	assert.True(t, res.MoneyDebited)
	assert.True(t, res.RequiresComplaint)

	// Money is displaced: debited from the sender, never credited onward.
	assert.True(t, senderBalance(t, mem).Equal(decimal.NewFromInt(800)))
	ext, err := mem.GetExternalAccount(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.True(t, ext.Balance.Equal(decimal.NewFromInt(75000)))

	txn, err := mem.GetTransactionByRef(context.Background(), res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TxnFailed, txn.Status)
	assert.Equal(t, errcode.ReversalInProgress, txn.ErrorCode)
	assert.True(t, txn.BeforeBalance.Sub(txn.AfterBalance).Equal(decimal.NewFromInt(200)))
}

func TestTransferPendingCodeParksTransaction(t *testing.T) {
	mem := newTestLedger()
	ex := newTestExecutor(mem, errcode.BankNetworkDelay)

	res, err := ex.Process(context.Background(), models.TransferRequest{
		UserID:          1,
		ReceiverAccount: "9876543210",
		ReceiverName:    "Ramesh Kumar",
		Amount:          decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, models.TxnPending, res.Status)
	assert.True(t, res.RequiresComplaint)

	txn, err := mem.GetTransactionByRef(context.Background(), res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TxnPending, txn.Status)
	assert.Equal(t, errcode.BankNetworkDelay, txn.ErrorCode)
	assert.True(t, senderBalance(t, mem).Equal(decimal.NewFromInt(800)))
}
