package errcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The injector and the complaint resolver share this table; these tests pin
// the consistency contract between them.

func TestInjectableCodesArePostDebit(t *testing.T) {
	for _, c := range PostDebitCodes() {
		p, ok := Lookup(c)
		require.True(t, ok, "injectable code %s missing from policy table", c)
		assert.True(t, p.PostDebit, "injectable code %s must be post-debit", c)
		assert.Greater(t, p.Weight, 0, "injectable code %s needs a draw weight", c)
		assert.NotEmpty(t, p.Message, "code %s needs a message", c)
	}
}

func TestPendingAndAutoResolveImplyPostDebit(t *testing.T) {
	for _, c := range All() {
		p, _ := Lookup(c)
		if p.Pending {
			assert.True(t, p.PostDebit, "pending code %s must be post-debit", c)
		}
		if p.AutoResolve {
			assert.True(t, p.PostDebit, "auto-resolvable code %s must be post-debit", c)
		}
	}
}

func TestPreDebitClassification(t *testing.T) {
	preDebit := []Code{
		InvalidUPI, InvalidAccountNumber, InvalidIFSC, UserCancelled,
		InsufficientBalance, NameMismatch, LimitExceeded, ReceiverNotFound,
		ReceiverBlocked, ReceiverInactive, NetworkRejected, DuplicateDetected,
	}
	for _, c := range preDebit {
		p, ok := Lookup(c)
		require.True(t, ok, "code %s missing from policy table", c)
		assert.False(t, p.PostDebit, "code %s must be pre-debit", c)
	}
}

func TestPendingCodes(t *testing.T) {
	for _, c := range []Code{BankNetworkDelay, SwitchDown, NetworkDelay} {
		assert.True(t, IsPending(c), "code %s parks transactions as pending", c)
	}
	assert.False(t, IsPending(ReversalInProgress))
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, "Transaction failed", Message(Code("Z99")))
	assert.Equal(t, "Insufficient balance.", Message(InsufficientBalance))
}
