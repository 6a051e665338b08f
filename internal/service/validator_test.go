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

func newTestLedger() *store.Memory {
	mem := store.NewMemory()
	mem.PutUser(models.User{ID: 1, FullName: "Arjun Mehta", Email: "arjun@example.com"})
	mem.PutUser(models.User{ID: 2, FullName: "Priya Sharma", Email: "priya@example.com"})
	mem.PutAccount(models.Account{ID: 1, UserID: 1, AccountNumber: "1000000001", Balance: decimal.NewFromInt(1000), Status: models.AccountActive})
	mem.PutAccount(models.Account{ID: 2, UserID: 2, AccountNumber: "1000000002", Balance: decimal.NewFromInt(500), Status: models.AccountActive})
	mem.PutExternalAccount(models.ExternalAccount{AccountNumber: "9876543210", HolderName: "Ramesh Kumar", BankName: "HDFC Bank", Status: models.AccountActive, Balance: decimal.NewFromInt(75000)})
	mem.PutExternalAccount(models.ExternalAccount{AccountNumber: "9876543212", HolderName: "Vikram Singh", BankName: "ICICI Bank", Status: models.AccountBlocked, Balance: decimal.NewFromInt(12000)})
	mem.PutExternalAccount(models.ExternalAccount{AccountNumber: "9876543213", HolderName: "Anita Desai", BankName: "Axis Bank", Status: models.AccountInactive, Balance: decimal.NewFromInt(8000)})
	return mem
}

// quietValidator has all noise rates at zero so outcomes are deterministic.
func quietValidator(mem *store.Memory) *Validator {
	return NewValidator(mem, ValidatorOpts{TxnLimit: 25000}, zap.NewNop())
}

func TestValidateSender(t *testing.T) {
	v := quietValidator(newTestLedger())
	ctx := context.Background()

	tests := []struct {
		name   string
		userID int64
		amount int64
		want   errcode.Code
	}{
		{"unknown user", 99, 100, errcode.InvalidAccountNumber},
		{"insufficient balance", 1, 5000, errcode.InsufficientBalance},
		{"over transaction limit", 1, 30000, errcode.LimitExceeded},
		{"valid", 1, 100, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct, code, err := v.ValidateSender(ctx, tt.userID, decimal.NewFromInt(tt.amount))
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
			if tt.want == "" {
				require.NotNil(t, acct)
				assert.Equal(t, tt.userID, acct.UserID)
			}
		})
	}
}

func TestValidateSenderLimitCheckedAfterBalance(t *testing.T) {
	mem := newTestLedger()
	mem.PutAccount(models.Account{ID: 1, UserID: 1, AccountNumber: "1000000001", Balance: decimal.NewFromInt(50000), Status: models.AccountActive})
	v := quietValidator(mem)

	// 30000 is coverable but over the 25000 limit.
	_, code, err := v.ValidateSender(context.Background(), 1, decimal.NewFromInt(30000))
	require.NoError(t, err)
	assert.Equal(t, errcode.LimitExceeded, code)
}

func TestValidateReceiverFormat(t *testing.T) {
	v := quietValidator(newTestLedger())
	ctx := context.Background()

	tests := []struct {
		name    string
		account string
		want    errcode.Code
	}{
		{"upi too short", "a@b", errcode.InvalidUPI},
		{"upi double at", "some@@upi", errcode.InvalidUPI},
		{"upi empty handle", "someone@", errcode.InvalidUPI},
		{"account number too short", "12345", errcode.InvalidAccountNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, code, err := v.ValidateReceiver(ctx, tt.account, "Anyone")
			require.NoError(t, err)
			assert.Equal(t, ReceiverNone, kind)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestValidateReceiverResolution(t *testing.T) {
	v := quietValidator(newTestLedger())
	ctx := context.Background()

	tests := []struct {
		name     string
		account  string
		claimed  string
		wantKind ReceiverKind
		wantCode errcode.Code
	}{
		{"internal match", "1000000002", "Priya Sharma", ReceiverInternal, ""},
		{"internal match case-insensitive", "1000000002", "priya sharma", ReceiverInternal, ""},
		{"internal name mismatch", "1000000002", "Someone Else", ReceiverNone, errcode.NameMismatch},
		{"external match", "9876543210", "Ramesh Kumar", ReceiverExternal, ""},
		{"external blocked", "9876543212", "Vikram Singh", ReceiverNone, errcode.ReceiverBlocked},
		{"external inactive", "9876543213", "Anita Desai", ReceiverNone, errcode.ReceiverInactive},
		{"not found", "9999999999", "Ghost", ReceiverNone, errcode.ReceiverNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, code, err := v.ValidateReceiver(ctx, tt.account, tt.claimed)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestValidateReceiverNoise(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		opts ValidatorOpts
		want errcode.Code
	}{
		{"user cancel", ValidatorOpts{UserCancelRate: 1}, errcode.UserCancelled},
		{"network reject", ValidatorOpts{NetworkRejRate: 1}, errcode.NetworkRejected},
		{"duplicate", ValidatorOpts{DuplicateRate: 1}, errcode.DuplicateDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(newTestLedger(), tt.opts, zap.NewNop())
			kind, code, err := v.ValidateReceiver(ctx, "9876543210", "Ramesh Kumar")
			require.NoError(t, err)
			assert.Equal(t, ReceiverNone, kind)
			assert.Equal(t, tt.want, code)
		})
	}
}
