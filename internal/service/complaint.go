package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banksecure/paysim/internal/errcode"
	"github.com/banksecure/paysim/internal/models"
	"github.com/banksecure/paysim/internal/store"
)

var highValueComplaint = decimal.NewFromInt(10000)

// ComplaintService files complaints and resolves them. Resolution works off
// the recorded transaction status only; it never re-runs the failure
// injector. Whether a refund is owed is re-derived from the shared error
// code policy table, the same table the injector draws from.
type ComplaintService struct {
	store store.Ledger
	locks *KeyedLocks
	log   *zap.Logger
}

func NewComplaintService(ledger store.Ledger, locks *KeyedLocks, log *zap.Logger) *ComplaintService {
	return &ComplaintService{store: ledger, locks: locks, log: log}
}

// Submit files a complaint against one of the caller's transactions and
// returns a receipt with the root-cause analysis. Resolution happens
// asynchronously.
func (s *ComplaintService) Submit(ctx context.Context, req models.ComplaintRequest) (*models.ComplaintReceipt, error) {
	txn, err := s.store.GetTransactionByRef(ctx, req.TransactionRef)
	if err != nil {
		return nil, err
	}
	acct, err := s.store.GetAccountByUserID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if txn.AccountID != acct.ID {
		// Disputing someone else's transaction reads as not-found.
		return nil, store.ErrTransactionNotFound
	}

	rootCause, action, estimate, auto, postDebit := analyzeRootCause(txn.ErrorCode)
	priority := "medium"
	if (postDebit && !auto) || txn.Amount.GreaterThan(highValueComplaint) {
		priority = "high"
	}

	c := &models.Complaint{
		Ref:                 newRef("CMP"),
		UserID:              req.UserID,
		TransactionRef:      txn.Ref,
		ErrorCode:           txn.ErrorCode,
		Description:         req.Description,
		Priority:            priority,
		Status:              models.ComplaintProcessing,
		RootCause:           rootCause,
		ResolutionAction:    action,
		EstimatedResolution: estimate,
	}
	if _, err := s.store.InsertComplaint(ctx, c); err != nil {
		return nil, err
	}

	msg := "Your complaint requires manual review by our support team."
	switch {
	case auto:
		msg = "Your complaint is being processed automatically. Refund will be initiated shortly."
	case !postDebit:
		msg = "No amount was debited for this transaction; the complaint will be closed after verification."
	}
	s.log.Info("complaint filed",
		zap.String("complaint_id", c.Ref),
		zap.String("transaction_id", txn.Ref),
		zap.String("error_code", txn.ErrorCode.String()),
		zap.String("priority", priority))

	return &models.ComplaintReceipt{
		ComplaintID:         c.Ref,
		Status:              models.ComplaintProcessing,
		Priority:            priority,
		RootCause:           rootCause,
		ResolutionAction:    action,
		EstimatedResolution: estimate,
		Message:             msg,
	}, nil
}

// Resolve drives a complaint to a terminal status. The recorded transaction
// status is ground truth: a completed transaction always closes the
// complaint with no refund; pre-debit codes resolve without a refund; only
// auto-resolvable post-debit codes trigger the refund path; anything
// ambiguous escalates. Resolution serializes on the disputed transaction,
// so two complaints filed against the same transaction cannot both run the
// refund path: the second observes the refunded status. Re-resolving a
// terminal complaint is a no-op.
func (s *ComplaintService) Resolve(ctx context.Context, complaintRef string) (*models.ResolutionResult, error) {
	c, err := s.store.GetComplaintByRef(ctx, complaintRef)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("txn:" + c.TransactionRef)
	defer unlock()

	// Re-read under the lock; a concurrent resolution may just have
	// finished this complaint.
	c, err = s.store.GetComplaintByRef(ctx, complaintRef)
	if err != nil {
		return nil, err
	}
	if c.Status != models.ComplaintProcessing {
		return &models.ResolutionResult{
			ComplaintID:          c.Ref,
			Status:               c.Status,
			RefundTransactionRef: c.RefundTransactionRef,
			Message:              "Complaint already " + string(c.Status),
		}, nil
	}

	txn, err := s.store.GetTransactionByRef(ctx, c.TransactionRef)
	if err != nil {
		return nil, err
	}

	switch txn.Status {
	case models.TxnCompleted:
		// Hard rule, no exceptions: no money was lost.
		return s.finish(ctx, c, models.ComplaintClosed, "Transaction already successful; no funds were lost.", "")
	case models.TxnRefunded:
		return s.finish(ctx, c, models.ComplaintResolved, "Refund already processed for this transaction.", "")
	}

	policy, known := errcode.Lookup(txn.ErrorCode)
	if txn.ErrorCode == "" || !known {
		return s.finish(ctx, c, models.ComplaintEscalated, "Unrecognized error code; routed for manual review.", "")
	}
	if !policy.PostDebit {
		return s.finish(ctx, c, models.ComplaintResolved, "No refund needed; funds never left the account.", "")
	}
	if !policy.AutoResolve {
		return s.finish(ctx, c, models.ComplaintEscalated, "Escalated for manual review: "+policy.Message, "")
	}

	acct, err := s.store.GetAccountByID(ctx, txn.AccountID)
	if err != nil || acct.Status != models.AccountActive {
		return s.finish(ctx, c, models.ComplaintEscalated, "Sender account invalid; manual intervention required.", "")
	}

	refundRef, err := s.refund(ctx, acct, txn)
	if err != nil {
		// Leave the complaint processing; a later attempt retries cleanly.
		return nil, fmt.Errorf("refund for complaint %s: %w", c.Ref, err)
	}

	notes := fmt.Sprintf("Refund of %s processed for failed transaction %s", txn.Amount.String(), txn.Ref)
	return s.finish(ctx, c, models.ComplaintResolved, notes, refundRef)
}

// refund credits the disputed amount back and writes the refund transaction.
// Once the balance credit committed, the remaining writes are pushed through
// best-effort: the money has moved and a retry must not credit it twice.
func (s *ComplaintService) refund(ctx context.Context, acct *models.Account, txn *models.Transaction) (string, error) {
	unlock := s.locks.Lock("acct:" + acct.AccountNumber)
	defer unlock()

	acct, err := s.store.GetAccountByID(ctx, acct.ID)
	if err != nil {
		return "", err
	}
	before := acct.Balance
	after := before.Add(txn.Amount)
	if err := s.store.UpdateAccountBalance(ctx, acct.ID, after); err != nil {
		return "", err
	}

	refundRef := newRef("REF")
	if _, err := s.store.InsertTransaction(ctx, &models.Transaction{
		Ref:           refundRef,
		AccountID:     acct.ID,
		Type:          models.TxnRefund,
		Amount:        txn.Amount,
		BeforeBalance: before,
		AfterBalance:  after,
		Counterparty:  txn.Ref,
		Status:        models.TxnCompleted,
		Description:   "Refund for failed transaction " + txn.Ref,
	}); err != nil {
		s.log.Error("refund transaction insert failed",
			zap.String("transaction_id", txn.Ref), zap.String("refund_id", refundRef), zap.Error(err))
	}
	if err := s.store.UpdateTransactionStatus(ctx, txn.Ref, models.TxnRefunded, txn.ErrorCode); err != nil {
		s.log.Error("refunded status write failed", zap.String("transaction_id", txn.Ref), zap.Error(err))
	}

	s.log.Info("refund processed",
		zap.String("transaction_id", txn.Ref),
		zap.String("refund_id", refundRef),
		zap.String("amount", txn.Amount.String()))
	return refundRef, nil
}

func (s *ComplaintService) finish(ctx context.Context, c *models.Complaint, status models.ComplaintStatus, notes, refundRef string) (*models.ResolutionResult, error) {
	if err := s.store.UpdateComplaint(ctx, c.Ref, status, notes, refundRef); err != nil {
		return nil, err
	}
	s.log.Info("complaint resolved",
		zap.String("complaint_id", c.Ref), zap.String("status", string(status)))
	return &models.ResolutionResult{
		ComplaintID:          c.Ref,
		Status:               status,
		RefundTransactionRef: refundRef,
		Message:              notes,
	}, nil
}

// analyzeRootCause maps a transaction's error code onto the complaint
// receipt fields using the shared policy table.
func analyzeRootCause(code errcode.Code) (rootCause, action, estimate string, auto, postDebit bool) {
	policy, ok := errcode.Lookup(code)
	if code == "" || !ok {
		return "Unknown error", "Manual review required", "2-3 days", false, true
	}
	action = "Manual review required"
	if policy.AutoResolve && policy.PostDebit {
		action = "Automatic refund"
	} else if !policy.PostDebit {
		action = "No refund due; funds were not debited"
	}
	return policy.Message, action, policy.ResolutionEstimate, policy.AutoResolve && policy.PostDebit, policy.PostDebit
}
