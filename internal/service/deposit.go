package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banksecure/paysim/internal/models"
)

// Deposit credits the user's account and records a completed deposit
// transaction with the before/after balances. Deposits never fail the way
// transfers do; there is no network leg to inject against.
func (e *Executor) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*models.Transaction, error) {
	acct, err := e.store.GetAccountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.Lock("acct:" + acct.AccountNumber)
	defer unlock()

	acct, err = e.store.GetAccountByID(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	before := acct.Balance
	after := before.Add(amount)
	if err := e.store.UpdateAccountBalance(ctx, acct.ID, after); err != nil {
		return nil, fmt.Errorf("deposit credit failed: %w", err)
	}

	txn := &models.Transaction{
		Ref:           newRef("TXN"),
		AccountID:     acct.ID,
		Type:          models.TxnDeposit,
		Amount:        amount,
		BeforeBalance: before,
		AfterBalance:  after,
		Status:        models.TxnCompleted,
		Description:   "Deposit to account",
		CreatedAt:     time.Now(),
	}
	if _, err := e.store.InsertTransaction(ctx, txn); err != nil {
		// The credit is not durable without its audit row; take it back.
		if rbErr := e.store.UpdateAccountBalance(ctx, acct.ID, before); rbErr != nil {
			e.log.Error("balance restore failed after deposit insert error",
				zap.String("transaction_id", txn.Ref), zap.Error(rbErr))
		}
		return nil, fmt.Errorf("deposit transaction insert failed: %w", err)
	}

	e.log.Info("deposit completed",
		zap.String("transaction_id", txn.Ref),
		zap.Int64("user_id", userID),
		zap.String("amount", amount.String()))
	return txn, nil
}
