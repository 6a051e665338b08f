package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banksecure/paysim/internal/errcode"
	"github.com/banksecure/paysim/internal/models"
	"github.com/banksecure/paysim/internal/store"
)

// ReceiverKind says which ledger namespace a validated receiver lives in.
type ReceiverKind int

const (
	ReceiverNone ReceiverKind = iota
	ReceiverInternal
	ReceiverExternal
)

// Validator runs the pre-debit checks. Every failure it reports happened
// before any balance mutation, so the whole stage is idempotent and safe to
// retry. Checks run in a fixed order and each returns its own code.
type Validator struct {
	store store.Ledger
	limit decimal.Decimal
	log   *zap.Logger

	cancelRate float64
	rejectRate float64
	dupRate    float64

	mu  sync.Mutex
	rng *rand.Rand
}

// ValidatorOpts tunes the validator's limit and simulated network noise.
type ValidatorOpts struct {
	TxnLimit       int64
	UserCancelRate float64
	NetworkRejRate float64
	DuplicateRate  float64
	Source         rand.Source
}

func NewValidator(ledger store.Ledger, opts ValidatorOpts, log *zap.Logger) *Validator {
	if opts.TxnLimit == 0 {
		opts.TxnLimit = 25000
	}
	if opts.Source == nil {
		opts.Source = rand.NewSource(time.Now().UnixNano())
	}
	return &Validator{
		store:      ledger,
		limit:      decimal.NewFromInt(opts.TxnLimit),
		log:        log,
		cancelRate: opts.UserCancelRate,
		rejectRate: opts.NetworkRejRate,
		dupRate:    opts.DuplicateRate,
		rng:        rand.New(opts.Source),
	}
}

// ValidateSender checks that the sender exists, covers the amount, and stays
// under the per-transaction limit. A non-empty code means the transfer must
// be rejected pre-debit.
func (v *Validator) ValidateSender(ctx context.Context, userID int64, amount decimal.Decimal) (*models.Account, errcode.Code, error) {
	acct, err := v.store.GetAccountByUserID(ctx, userID)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, errcode.InvalidAccountNumber, nil
	}
	if err != nil {
		return nil, "", err
	}

	if amount.GreaterThan(acct.Balance) {
		return acct, errcode.InsufficientBalance, nil
	}
	if amount.GreaterThan(v.limit) {
		return acct, errcode.LimitExceeded, nil
	}
	return acct, "", nil
}

// ValidateReceiver validates the receiver identifier format, injects the
// configured network noise, and resolves the receiver against internal
// accounts first, external accounts second.
func (v *Validator) ValidateReceiver(ctx context.Context, account, name string) (ReceiverKind, errcode.Code, error) {
	if strings.Contains(account, "@") {
		if len(account) < 6 || !validUPIHandle(account) {
			return ReceiverNone, errcode.InvalidUPI, nil
		}
	} else if isDigits(account) && len(account) < 10 {
		return ReceiverNone, errcode.InvalidAccountNumber, nil
	}

	if code := v.drawNoise(); code != "" {
		return ReceiverNone, code, nil
	}

	if acct, err := v.store.GetAccountByNumber(ctx, account); err == nil {
		return v.checkReceiverStatus(ReceiverInternal, acct.Status, resolveHolderName(ctx, v.store, acct.UserID), name)
	} else if !errors.Is(err, store.ErrAccountNotFound) {
		return ReceiverNone, "", err
	}

	ext, err := v.store.GetExternalAccount(ctx, account)
	if errors.Is(err, store.ErrExternalAccountNotFound) {
		return ReceiverNone, errcode.ReceiverNotFound, nil
	}
	if err != nil {
		return ReceiverNone, "", err
	}
	return v.checkReceiverStatus(ReceiverExternal, ext.Status, ext.HolderName, name)
}

func (v *Validator) checkReceiverStatus(kind ReceiverKind, status models.AccountStatus, holder, claimed string) (ReceiverKind, errcode.Code, error) {
	switch status {
	case models.AccountBlocked:
		return ReceiverNone, errcode.ReceiverBlocked, nil
	case models.AccountInactive:
		return ReceiverNone, errcode.ReceiverInactive, nil
	}
	if !strings.EqualFold(holder, claimed) {
		return ReceiverNone, errcode.NameMismatch, nil
	}
	return kind, "", nil
}

// drawNoise simulates spontaneous network-side rejections during
// validation. All three codes are pre-debit.
func (v *Validator) drawNoise() errcode.Code {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancelRate > 0 && v.rng.Float64() < v.cancelRate {
		return errcode.UserCancelled
	}
	if v.rejectRate > 0 && v.rng.Float64() < v.rejectRate {
		return errcode.NetworkRejected
	}
	if v.dupRate > 0 && v.rng.Float64() < v.dupRate {
		return errcode.DuplicateDetected
	}
	return ""
}

func resolveHolderName(ctx context.Context, ledger store.Ledger, userID int64) string {
	u, err := ledger.GetUser(ctx, userID)
	if err != nil {
		return ""
	}
	return u.FullName
}

func validUPIHandle(id string) bool {
	parts := strings.Split(id, "@")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
