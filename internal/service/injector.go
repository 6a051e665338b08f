package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/banksecure/paysim/internal/errcode"
)

// weightedCode pairs a code with a relative weight for a draw pool.
type weightedCode struct {
	code   errcode.Code
	weight float64
}

// Off-hours infrastructure is flakier: only network/system codes occur and
// their relative weights shift.
var nightPool = []weightedCode{
	{errcode.SystemFailure, 0.5},
	{errcode.SwitchDown, 0.3},
	{errcode.BankNetworkDelay, 0.2},
}

// High-value transfers skew toward settlement/system codes.
var highValuePool = []weightedCode{
	{errcode.ReversalInProgress, 0.5},
	{errcode.ReceiverBankIssue, 0.3},
	{errcode.SystemFailure, 0.2},
}

// Injector decides whether a transfer fails after the debit point and, if
// so, with which code. It is a pure function of (amount, clock, random
// source); both the clock and the source are injectable so tests are
// deterministic.
type Injector struct {
	rate       float64
	highValue  decimal.Decimal
	nightStart int
	nightEnd   int

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// InjectorOpts tunes the injector. An unset threshold, window, source, or
// clock falls back to the calibrated default; FailureRate is used as given,
// so a zero rate disables injection.
type InjectorOpts struct {
	FailureRate        float64
	HighValueThreshold int64
	NightStartHour     int
	NightEndHour       int
	Source             rand.Source
	Now                func() time.Time
}

func NewInjector(opts InjectorOpts) *Injector {
	if opts.HighValueThreshold == 0 {
		opts.HighValueThreshold = 50000
	}
	if opts.NightStartHour == 0 && opts.NightEndHour == 0 {
		opts.NightStartHour = 23
		opts.NightEndHour = 7
	}
	if opts.Source == nil {
		opts.Source = rand.NewSource(time.Now().UnixNano())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Injector{
		rate:       opts.FailureRate,
		highValue:  decimal.NewFromInt(opts.HighValueThreshold),
		nightStart: opts.NightStartHour,
		nightEnd:   opts.NightEndHour,
		rng:        rand.New(opts.Source),
		now:        opts.Now,
	}
}

// Draw returns the injected post-debit error code, or "" when the transfer
// goes through. Every code it can return is classified post-debit in the
// shared policy table.
func (i *Injector) Draw(amount decimal.Decimal) errcode.Code {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.rng.Float64() >= i.rate {
		return ""
	}

	if i.inNightWindow(i.now().Hour()) {
		return i.weightedChoice(nightPool)
	}

	if amount.GreaterThan(i.highValue) {
		return i.weightedChoice(highValuePool)
	}

	pool := make([]weightedCode, 0, len(errcode.PostDebitCodes()))
	for _, c := range errcode.PostDebitCodes() {
		p, _ := errcode.Lookup(c)
		pool = append(pool, weightedCode{code: c, weight: float64(p.Weight)})
	}
	return i.weightedChoice(pool)
}

// inNightWindow handles both wrapping (23..7) and non-wrapping (1..5)
// windows. The end hour is exclusive; an end of 0 means midnight.
func (i *Injector) inNightWindow(hour int) bool {
	if i.nightStart <= i.nightEnd {
		return hour >= i.nightStart && hour < i.nightEnd
	}
	return hour >= i.nightStart || hour < i.nightEnd
}

func (i *Injector) weightedChoice(pool []weightedCode) errcode.Code {
	var total float64
	for _, wc := range pool {
		total += wc.weight
	}
	r := i.rng.Float64() * total
	var upto float64
	for _, wc := range pool {
		upto += wc.weight
		if r < upto {
			return wc.code
		}
	}
	return pool[len(pool)-1].code
}
