package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banksecure/paysim/internal/errcode"
	"github.com/banksecure/paysim/internal/models"
)

func TestMemorySentinelErrors(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	_, err := mem.GetUser(ctx, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = mem.GetAccountByUserID(ctx, 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = mem.GetExternalAccount(ctx, "123")
	assert.ErrorIs(t, err, ErrExternalAccountNotFound)
	_, err = mem.GetTransactionByRef(ctx, "TXN1")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	_, err = mem.GetComplaintByRef(ctx, "CMP1")
	assert.ErrorIs(t, err, ErrComplaintNotFound)
	err = mem.UpdateTransactionStatus(ctx, "TXN1", models.TxnFailed, "")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestMemoryAccountLookupsShareOneRecord(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	mem.PutAccount(models.Account{ID: 7, UserID: 3, AccountNumber: "1000000007", Balance: decimal.NewFromInt(100), Status: models.AccountActive})

	require.NoError(t, mem.UpdateAccountBalance(ctx, 7, decimal.NewFromInt(250)))

	byID, err := mem.GetAccountByID(ctx, 7)
	require.NoError(t, err)
	byUser, err := mem.GetAccountByUserID(ctx, 3)
	require.NoError(t, err)
	byNumber, err := mem.GetAccountByNumber(ctx, "1000000007")
	require.NoError(t, err)

	for _, a := range []*models.Account{byID, byUser, byNumber} {
		assert.True(t, a.Balance.Equal(decimal.NewFromInt(250)))
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()
	mem.PutAccount(models.Account{ID: 1, UserID: 1, AccountNumber: "1000000001", Balance: decimal.NewFromInt(100), Status: models.AccountActive})

	a, err := mem.GetAccountByID(ctx, 1)
	require.NoError(t, err)
	a.Balance = decimal.NewFromInt(999999)

	fresh, err := mem.GetAccountByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.Equal(decimal.NewFromInt(100)))
}

func TestMemoryTransactionStatusTransition(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	_, err := mem.InsertTransaction(ctx, &models.Transaction{
		Ref:       "TXNABC123",
		AccountID: 1,
		Type:      models.TxnTransfer,
		Amount:    decimal.NewFromInt(50),
		Status:    models.TxnPending,
	})
	require.NoError(t, err)

	require.NoError(t, mem.UpdateTransactionStatus(ctx, "TXNABC123", models.TxnFailed, errcode.NetworkError))

	txn, err := mem.GetTransactionByRef(ctx, "TXNABC123")
	require.NoError(t, err)
	assert.Equal(t, models.TxnFailed, txn.Status)
	assert.Equal(t, errcode.NetworkError, txn.ErrorCode)

	// Clearing the status keeps the recorded code.
	require.NoError(t, mem.UpdateTransactionStatus(ctx, "TXNABC123", models.TxnRefunded, ""))
	txn, err = mem.GetTransactionByRef(ctx, "TXNABC123")
	require.NoError(t, err)
	assert.Equal(t, models.TxnRefunded, txn.Status)
	assert.Equal(t, errcode.NetworkError, txn.ErrorCode)
}

func TestMemoryTransactionsSnapshotNewestFirst(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	for _, ref := range []string{"TXN1", "TXN2", "TXN3"} {
		_, err := mem.InsertTransaction(ctx, &models.Transaction{Ref: ref, AccountID: 1, Type: models.TxnTransfer, Amount: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}
	_, err := mem.InsertTransaction(ctx, &models.Transaction{Ref: "OTHER", AccountID: 2, Type: models.TxnTransfer, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)

	log := mem.Transactions(1)
	require.Len(t, log, 3)
	assert.Equal(t, "TXN3", log[0].Ref)
	assert.Equal(t, "TXN1", log[2].Ref)
}

func TestMemoryListTransactionsByAccountHonorsLimit(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	for _, ref := range []string{"TXN1", "TXN2", "TXN3", "TXN4"} {
		_, err := mem.InsertTransaction(ctx, &models.Transaction{Ref: ref, AccountID: 1, Type: models.TxnTransfer, Amount: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}

	page, err := mem.ListTransactionsByAccount(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "TXN4", page[0].Ref)
	assert.Equal(t, "TXN3", page[1].Ref)

	all, err := mem.ListTransactionsByAccount(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMemoryListComplaintsFiltersByStatus(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	for i, status := range []models.ComplaintStatus{models.ComplaintProcessing, models.ComplaintResolved, models.ComplaintProcessing} {
		_, err := mem.InsertComplaint(ctx, &models.Complaint{
			Ref:            "CMP" + string(rune('A'+i)),
			UserID:         1,
			TransactionRef: "TXN1",
			Status:         status,
		})
		require.NoError(t, err)
	}

	all, err := mem.ListComplaints(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "CMPC", all[0].Ref)

	processing, err := mem.ListComplaints(ctx, models.ComplaintProcessing)
	require.NoError(t, err)
	require.Len(t, processing, 2)
	for _, c := range processing {
		assert.Equal(t, models.ComplaintProcessing, c.Status)
	}
}

func TestMemoryComplaintUpdate(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	_, err := mem.InsertComplaint(ctx, &models.Complaint{
		Ref:            "CMPABC123",
		UserID:         1,
		TransactionRef: "TXN1",
		Status:         models.ComplaintProcessing,
	})
	require.NoError(t, err)

	require.NoError(t, mem.UpdateComplaint(ctx, "CMPABC123", models.ComplaintResolved, "refund done", "REFXYZ"))

	c, err := mem.GetComplaintByRef(ctx, "CMPABC123")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintResolved, c.Status)
	assert.Equal(t, "refund done", c.Notes)
	assert.Equal(t, "REFXYZ", c.RefundTransactionRef)
}
