// Package errcode is the single source of truth for the NPCI-style error
// code taxonomy: which codes exist, whether they occur before or after the
// sender was debited, the user-facing message, the weight used when the
// failure injector draws a code, and whether a complaint on the code can be
// auto-resolved with a refund.
//
// The failure injector and the complaint resolver both read this table. A
// code the injector can return is always classified post-debit here, which
// is what makes it refund-eligible downstream.
package errcode

// Code is a payment-network status code such as "U20" or "S10".
type Code string

// Pre-debit codes. No balance mutation has happened when these occur.
const (
	InvalidUPI           Code = "C01"
	InvalidAccountNumber Code = "C02"
	InvalidIFSC          Code = "C03"
	UserCancelled        Code = "C05"
	InsufficientBalance  Code = "S10"
	NameMismatch         Code = "U15"
	LimitExceeded        Code = "U16"
	ReceiverNotFound     Code = "U14"
	ReceiverBlocked      Code = "U21"
	ReceiverInactive     Code = "U28"
	NetworkRejected      Code = "R05"
	DuplicateDetected    Code = "R10"
)

// Post-debit codes. The sender's balance was already decremented.
const (
	ReversalInProgress  Code = "S31"
	BankResponseDelayed Code = "U20"
	NetworkError        Code = "T01"
	ReceiverBankIssue   Code = "U18"
	TransactionTimeout  Code = "S05"
	SwitchDown          Code = "R30"
	BankNotResponding   Code = "T06"
	BankNetworkDelay    Code = "U13"
	SystemFailure       Code = "S22"
	NetworkDelay        Code = "T05"
	BankUnreachable     Code = "R13"
)

// Policy describes how a code is classified and handled.
type Policy struct {
	Message            string
	PostDebit          bool
	Pending            bool // transaction parks as pending instead of failed
	AutoResolve        bool // complaint may be auto-refunded without review
	Weight             int  // relative weight in the injector's baseline draw
	ResolutionEstimate string
}

var policies = map[Code]Policy{
	// Customer input and pre-debit validation failures.
	InvalidUPI:           {Message: "Invalid UPI ID.", ResolutionEstimate: "immediate"},
	InvalidAccountNumber: {Message: "Invalid account number.", ResolutionEstimate: "immediate"},
	InvalidIFSC:          {Message: "Invalid IFSC code.", ResolutionEstimate: "immediate"},
	UserCancelled:        {Message: "Transaction cancelled by you.", ResolutionEstimate: "immediate"},
	InsufficientBalance:  {Message: "Insufficient balance.", ResolutionEstimate: "1 hour"},
	NameMismatch:         {Message: "Account holder name does not match.", ResolutionEstimate: "immediate"},
	LimitExceeded:        {Message: "Transaction limit exceeded.", ResolutionEstimate: "immediate"},
	ReceiverNotFound:     {Message: "Invalid receiver details. Please check and retry.", ResolutionEstimate: "immediate"},
	ReceiverBlocked:      {Message: "Receiver account is blocked.", ResolutionEstimate: "1-2 days"},
	ReceiverInactive:     {Message: "Receiver account is inactive.", ResolutionEstimate: "1-2 days"},
	NetworkRejected:      {Message: "Transaction rejected by payment network.", ResolutionEstimate: "immediate"},
	DuplicateDetected:    {Message: "Duplicate transaction detected.", ResolutionEstimate: "immediate"},

	// Post-debit failures injected after the irrevocable debit point.
	ReversalInProgress:  {Message: "Amount temporarily debited. Reversal in progress.", PostDebit: true, AutoResolve: true, Weight: 15, ResolutionEstimate: "24 hours"},
	BankResponseDelayed: {Message: "Bank response delayed. Refund initiated.", PostDebit: true, AutoResolve: true, Weight: 20, ResolutionEstimate: "24 hours"},
	NetworkError:        {Message: "Network error occurred. Refund initiated.", PostDebit: true, AutoResolve: true, Weight: 15, ResolutionEstimate: "24 hours"},
	ReceiverBankIssue:   {Message: "Receiver bank technical issue. Refund initiated.", PostDebit: true, AutoResolve: true, Weight: 10, ResolutionEstimate: "48 hours"},
	TransactionTimeout:  {Message: "Transaction timed out. Refund initiated.", PostDebit: true, AutoResolve: true, Weight: 8, ResolutionEstimate: "24 hours"},
	SwitchDown:          {Message: "Payment network down. Refund if not completed.", PostDebit: true, Pending: true, AutoResolve: true, Weight: 8, ResolutionEstimate: "48 hours"},
	BankNotResponding:   {Message: "Bank not responding. Refund initiated.", PostDebit: true, AutoResolve: true, Weight: 7, ResolutionEstimate: "48 hours"},
	BankNetworkDelay:    {Message: "Transaction delayed due to bank network issue.", PostDebit: true, Pending: true, AutoResolve: true, Weight: 6, ResolutionEstimate: "24 hours"},
	SystemFailure:       {Message: "System issue. Transaction will be reversed if not completed.", PostDebit: true, Weight: 5, ResolutionEstimate: "3-5 days"},
	NetworkDelay:        {Message: "Transaction delayed due to network.", PostDebit: true, Pending: true, AutoResolve: true, Weight: 4, ResolutionEstimate: "24 hours"},
	BankUnreachable:     {Message: "Unable to reach receiver bank.", PostDebit: true, Weight: 2, ResolutionEstimate: "3-5 days"},
}

// drawOrder fixes the iteration order of the baseline weighted draw so a
// seeded random source yields reproducible sequences.
var drawOrder = []Code{
	ReversalInProgress, BankResponseDelayed, NetworkError, ReceiverBankIssue,
	TransactionTimeout, SwitchDown, BankNotResponding, BankNetworkDelay,
	SystemFailure, NetworkDelay, BankUnreachable,
}

// Lookup returns the policy for a code.
func Lookup(c Code) (Policy, bool) {
	p, ok := policies[c]
	return p, ok
}

// Message returns the user-facing message for a code, or a generic fallback.
func Message(c Code) string {
	if p, ok := policies[c]; ok {
		return p.Message
	}
	return "Transaction failed"
}

// IsPostDebit reports whether the code occurs after the sender was debited.
// Unknown codes are treated as pre-debit; the resolver escalates them anyway.
func IsPostDebit(c Code) bool {
	return policies[c].PostDebit
}

// IsPending reports whether a failure with this code parks the transaction
// as pending rather than failed (bank-side follow-up is asynchronous).
func IsPending(c Code) bool {
	return policies[c].Pending
}

// PostDebitCodes returns the injectable post-debit codes in draw order.
func PostDebitCodes() []Code {
	out := make([]Code, len(drawOrder))
	copy(out, drawOrder)
	return out
}

// All returns every enumerated code.
func All() []Code {
	out := make([]Code, 0, len(policies))
	for c := range policies {
		out = append(out, c)
	}
	return out
}

func (c Code) String() string { return string(c) }
