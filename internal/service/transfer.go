package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banksecure/paysim/internal/errcode"
	"github.com/banksecure/paysim/internal/models"
	"github.com/banksecure/paysim/internal/store"
)

// FailureInjector is the post-debit failure policy the executor consults
// after the irrevocable debit point.
type FailureInjector interface {
	Draw(amount decimal.Decimal) errcode.Code
}

// Executor runs the transfer state machine:
//
//	VALIDATING -> DEBITED(pending) -> COMPLETED | FAILED | PENDING
//
// Validation failures never touch a balance. Once the debit is committed the
// transfer either completes (receiver credited) or parks as failed/pending
// with the debit left in place; a complaint-driven refund is the only way
// money moves back, mirroring how real payment rails behave.
type Executor struct {
	store     store.Ledger
	validator *Validator
	injector  FailureInjector
	locks     *KeyedLocks
	log       *zap.Logger
}

func NewExecutor(ledger store.Ledger, v *Validator, inj FailureInjector, locks *KeyedLocks, log *zap.Logger) *Executor {
	return &Executor{store: ledger, validator: v, injector: inj, locks: locks, log: log}
}

// Process runs one transfer attempt end to end. Failures come back as a
// structured TransferResult, not an error: callers branch on
// RequiresComplaint and MoneyDebited. An error return means the attempt
// never got past input validation or the store broke before any debit.
func (e *Executor) Process(ctx context.Context, req models.TransferRequest) (result *models.TransferResult, err error) {
	txnRef := newRef("TXN")
	log := e.log.With(zap.String("transaction_id", txnRef), zap.Int64("user_id", req.UserID))

	sender, code, err := e.validator.ValidateSender(ctx, req.UserID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("sender validation: %w", err)
	}
	if code != "" {
		e.recordValidationFailure(ctx, sender, txnRef, req, code)
		log.Info("transfer rejected pre-debit", zap.String("error_code", code.String()))
		return preDebitResult(txnRef, code), nil
	}

	kind, code, err := e.validator.ValidateReceiver(ctx, req.ReceiverAccount, req.ReceiverName)
	if err != nil {
		return nil, fmt.Errorf("receiver validation: %w", err)
	}
	if code != "" {
		e.recordValidationFailure(ctx, sender, txnRef, req, code)
		log.Info("transfer rejected pre-debit", zap.String("error_code", code.String()))
		return preDebitResult(txnRef, code), nil
	}

	// Irrevocable debit point. Balance read, write, and the pending
	// transaction row commit under the sender's lock.
	unlock := e.locks.Lock("acct:" + sender.AccountNumber)
	sender, err = e.store.GetAccountByID(ctx, sender.ID)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("sender re-read: %w", err)
	}
	if req.Amount.GreaterThan(sender.Balance) {
		unlock()
		e.recordValidationFailure(ctx, sender, txnRef, req, errcode.InsufficientBalance)
		return preDebitResult(txnRef, errcode.InsufficientBalance), nil
	}

	before := sender.Balance
	after := before.Sub(req.Amount)
	if err := e.store.UpdateAccountBalance(ctx, sender.ID, after); err != nil {
		unlock()
		return nil, fmt.Errorf("debit failed: %w", err)
	}
	_, err = e.store.InsertTransaction(ctx, &models.Transaction{
		Ref:           txnRef,
		AccountID:     sender.ID,
		Type:          models.TxnTransfer,
		Amount:        req.Amount,
		BeforeBalance: before,
		AfterBalance:  after,
		Counterparty:  req.ReceiverAccount,
		Status:        models.TxnPending,
		Description:   "Transfer to " + req.ReceiverAccount,
	})
	if err != nil {
		// The debit is not durable without its audit row; put the money back.
		if rbErr := e.store.UpdateAccountBalance(ctx, sender.ID, before); rbErr != nil {
			log.Error("balance restore failed after insert error", zap.Error(rbErr))
		}
		unlock()
		return nil, fmt.Errorf("pending transaction insert failed: %w", err)
	}
	unlock()

	// From here the money has left the account. Whatever happens next must
	// leave a traceable transaction record.
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic after debit", zap.Any("panic", r))
			e.tagSystemFailure(txnRef)
			result = postDebitResult(txnRef, errcode.SystemFailure)
			err = nil
		}
	}()

	if code := e.injector.Draw(req.Amount); code != "" {
		status := models.TxnFailed
		if errcode.IsPending(code) {
			status = models.TxnPending
		}
		if uErr := e.store.UpdateTransactionStatus(ctx, txnRef, status, code); uErr != nil {
			log.Error("failure status write failed", zap.Error(uErr))
			e.tagSystemFailure(txnRef)
			return postDebitResult(txnRef, errcode.SystemFailure), nil
		}
		log.Info("transfer failed post-debit",
			zap.String("error_code", code.String()), zap.String("status", string(status)))
		res := postDebitResult(txnRef, code)
		res.Status = status
		return res, nil
	}

	if err := e.credit(ctx, kind, sender, req, txnRef); err != nil {
		log.Error("credit failed after debit", zap.Error(err))
		e.tagSystemFailure(txnRef)
		return postDebitResult(txnRef, errcode.SystemFailure), nil
	}

	if err := e.store.UpdateTransactionStatus(ctx, txnRef, models.TxnCompleted, ""); err != nil {
		log.Error("completion status write failed", zap.Error(err))
		e.tagSystemFailure(txnRef)
		return postDebitResult(txnRef, errcode.SystemFailure), nil
	}

	log.Info("transfer completed", zap.String("amount", req.Amount.String()))
	return &models.TransferResult{
		TransactionID:     txnRef,
		Success:           true,
		Status:            models.TxnCompleted,
		Message:           "Transaction completed successfully",
		RequiresComplaint: false,
		MoneyDebited:      true,
		Timestamp:         time.Now(),
	}, nil
}

// credit moves the amount to the receiver. Internal receivers get a ledger
// credit leg; external receivers only get their shadow balance bumped.
func (e *Executor) credit(ctx context.Context, kind ReceiverKind, sender *models.Account, req models.TransferRequest, txnRef string) error {
	if kind == ReceiverInternal {
		unlock := e.locks.Lock("acct:" + req.ReceiverAccount)
		defer unlock()

		recv, err := e.store.GetAccountByNumber(ctx, req.ReceiverAccount)
		if err != nil {
			return err
		}
		before := recv.Balance
		after := before.Add(req.Amount)
		if err := e.store.UpdateAccountBalance(ctx, recv.ID, after); err != nil {
			return err
		}
		_, err = e.store.InsertTransaction(ctx, &models.Transaction{
			Ref:           newRef("TXN"),
			AccountID:     recv.ID,
			Type:          models.TxnCredit,
			Amount:        req.Amount,
			BeforeBalance: before,
			AfterBalance:  after,
			Counterparty:  sender.AccountNumber,
			Status:        models.TxnCompleted,
			Description:   "Transfer from " + sender.AccountNumber,
		})
		return err
	}

	unlock := e.locks.Lock("ext:" + req.ReceiverAccount)
	defer unlock()

	ext, err := e.store.GetExternalAccount(ctx, req.ReceiverAccount)
	if err != nil {
		return err
	}
	return e.store.UpdateExternalAccountBalance(ctx, req.ReceiverAccount, ext.Balance.Add(req.Amount))
}

// recordValidationFailure appends a failed_transfer audit row. No balance
// changed; the row exists purely for traceability.
func (e *Executor) recordValidationFailure(ctx context.Context, sender *models.Account, txnRef string, req models.TransferRequest, code errcode.Code) {
	if sender == nil {
		return
	}
	_, err := e.store.InsertTransaction(ctx, &models.Transaction{
		Ref:           txnRef,
		AccountID:     sender.ID,
		Type:          models.TxnFailedTransfer,
		Amount:        req.Amount,
		BeforeBalance: sender.Balance,
		AfterBalance:  sender.Balance,
		Counterparty:  req.ReceiverAccount,
		Status:        models.TxnFailed,
		ErrorCode:     code,
		Description:   "Failed transfer to " + req.ReceiverAccount + " - " + errcode.Message(code),
	})
	if err != nil {
		e.log.Warn("audit row insert failed", zap.String("transaction_id", txnRef), zap.Error(err))
	}
}

// tagSystemFailure is the best-effort audit write for exceptions after the
// debit was committed: the record must never silently lose a debit.
func (e *Executor) tagSystemFailure(txnRef string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := e.store.UpdateTransactionStatus(ctx, txnRef, models.TxnFailed, errcode.SystemFailure); err != nil {
		e.log.Error("system-failure audit write failed", zap.String("transaction_id", txnRef), zap.Error(err))
	}
}

func preDebitResult(txnRef string, code errcode.Code) *models.TransferResult {
	return &models.TransferResult{
		TransactionID:     txnRef,
		Success:           false,
		Status:            models.TxnFailed,
		ErrorCode:         code,
		Message:           errcode.Message(code),
		RequiresComplaint: false,
		MoneyDebited:      false,
		Timestamp:         time.Now(),
	}
}

func postDebitResult(txnRef string, code errcode.Code) *models.TransferResult {
	return &models.TransferResult{
		TransactionID:     txnRef,
		Success:           false,
		Status:            models.TxnFailed,
		ErrorCode:         code,
		Message:           errcode.Message(code),
		RequiresComplaint: true,
		MoneyDebited:      true,
		Timestamp:         time.Now(),
	}
}

// newRef builds a reference like TXN6F1C2A9E04D3.
func newRef(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + id[:12]
}
