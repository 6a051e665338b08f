package store

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/banksecure/paysim/internal/errcode"
	"github.com/banksecure/paysim/internal/models"
)

// Memory is an in-process Ledger. It backs the api binary when no database
// is configured and the service tests.
type Memory struct {
	mu         sync.RWMutex
	users      map[int64]*models.User
	accounts   map[int64]*models.Account
	byUser     map[int64]int64  // user id -> account id
	byNumber   map[string]int64 // account number -> account id
	external   map[string]*models.ExternalAccount
	txns       []*models.Transaction
	txnByRef   map[string]*models.Transaction
	cmpLog     []*models.Complaint
	complaints map[string]*models.Complaint
	nextID     int64
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[int64]*models.User),
		accounts:   make(map[int64]*models.Account),
		byUser:     make(map[int64]int64),
		byNumber:   make(map[string]int64),
		external:   make(map[string]*models.ExternalAccount),
		txnByRef:   make(map[string]*models.Transaction),
		complaints: make(map[string]*models.Complaint),
	}
}

// PutUser registers a user fixture.
func (m *Memory) PutUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := u
	m.users[u.ID] = &cp
}

// PutAccount registers an account fixture.
func (m *Memory) PutAccount(a models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		m.nextID++
		a.ID = m.nextID
	}
	cp := a
	m.accounts[a.ID] = &cp
	m.byUser[a.UserID] = a.ID
	m.byNumber[a.AccountNumber] = a.ID
}

// PutExternalAccount registers an external receiver fixture.
func (m *Memory) PutExternalAccount(a models.ExternalAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := a
	m.external[a.AccountNumber] = &cp
}

func (m *Memory) GetUser(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) GetAccountByUserID(_ context.Context, userID int64) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byUser[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *m.accounts[id]
	return &cp, nil
}

func (m *Memory) GetAccountByID(_ context.Context, id int64) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) GetAccountByNumber(_ context.Context, number string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byNumber[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *m.accounts[id]
	return &cp, nil
}

func (m *Memory) GetExternalAccount(_ context.Context, number string) (*models.ExternalAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.external[number]
	if !ok {
		return nil, ErrExternalAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) UpdateAccountBalance(_ context.Context, accountID int64, newBalance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.Balance = newBalance
	return nil
}

func (m *Memory) UpdateExternalAccountBalance(_ context.Context, number string, newBalance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.external[number]
	if !ok {
		return ErrExternalAccountNotFound
	}
	a.Balance = newBalance
	return nil
}

func (m *Memory) InsertTransaction(_ context.Context, txn *models.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *txn
	cp.ID = m.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.txns = append(m.txns, &cp)
	m.txnByRef[cp.Ref] = &cp
	return cp.ID, nil
}

func (m *Memory) GetTransactionByRef(_ context.Context, ref string) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.txnByRef[ref]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) UpdateTransactionStatus(_ context.Context, ref string, status models.TxnStatus, code errcode.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txnByRef[ref]
	if !ok {
		return ErrTransactionNotFound
	}
	t.Status = status
	if code != "" {
		t.ErrorCode = code
	}
	return nil
}

func (m *Memory) InsertComplaint(_ context.Context, c *models.Complaint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *c
	cp.ID = m.nextID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.cmpLog = append(m.cmpLog, &cp)
	m.complaints[cp.Ref] = &cp
	return cp.ID, nil
}

func (m *Memory) GetComplaintByRef(_ context.Context, ref string) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.complaints[ref]
	if !ok {
		return nil, ErrComplaintNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) UpdateComplaint(_ context.Context, ref string, status models.ComplaintStatus, notes string, refundRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[ref]
	if !ok {
		return ErrComplaintNotFound
	}
	c.Status = status
	if notes != "" {
		c.Notes = notes
	}
	if refundRef != "" {
		c.RefundTransactionRef = refundRef
	}
	return nil
}

func (m *Memory) ListTransactionsByAccount(_ context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Transaction
	for i := len(m.txns) - 1; i >= 0; i-- {
		if m.txns[i].AccountID != accountID {
			continue
		}
		out = append(out, *m.txns[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) ListComplaints(_ context.Context, status models.ComplaintStatus) ([]models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Complaint
	for i := len(m.cmpLog) - 1; i >= 0; i-- {
		if status != "" && m.cmpLog[i].Status != status {
			continue
		}
		out = append(out, *m.cmpLog[i])
	}
	return out, nil
}

// Transactions returns a snapshot of the transaction log for an account,
// newest first.
func (m *Memory) Transactions(accountID int64) []models.Transaction {
	out, _ := m.ListTransactionsByAccount(context.Background(), accountID, 0)
	return out
}

// SeedDemo loads a small fixture set so the api binary is usable without a
// database: three users with accounts and a handful of external receivers.
func (m *Memory) SeedDemo() {
	users := []models.User{
		{ID: 1, FullName: "Arjun Mehta", Email: "arjun.mehta@example.com"},
		{ID: 2, FullName: "Priya Sharma", Email: "priya.sharma@example.com"},
		{ID: 3, FullName: "Rahul Verma", Email: "rahul.verma@example.com"},
	}
	accounts := []models.Account{
		{ID: 1, UserID: 1, AccountNumber: "1000000001", Balance: decimal.NewFromInt(50000), Status: models.AccountActive},
		{ID: 2, UserID: 2, AccountNumber: "1000000002", Balance: decimal.NewFromInt(25000), Status: models.AccountActive},
		{ID: 3, UserID: 3, AccountNumber: "1000000003", Balance: decimal.NewFromInt(10000), Status: models.AccountActive},
	}
	externals := []models.ExternalAccount{
		{AccountNumber: "9876543210", HolderName: "Ramesh Kumar", BankName: "HDFC Bank", Status: models.AccountActive, Balance: decimal.NewFromInt(75000)},
		{AccountNumber: "9876543211", HolderName: "Sunita Devi", BankName: "SBI", Status: models.AccountActive, Balance: decimal.NewFromInt(30000)},
		{AccountNumber: "9876543212", HolderName: "Vikram Singh", BankName: "ICICI Bank", Status: models.AccountBlocked, Balance: decimal.NewFromInt(12000)},
		{AccountNumber: "9876543213", HolderName: "Anita Desai", BankName: "Axis Bank", Status: models.AccountInactive, Balance: decimal.NewFromInt(8000)},
	}
	for _, u := range users {
		m.PutUser(u)
	}
	for _, a := range accounts {
		m.PutAccount(a)
	}
	for _, e := range externals {
		m.PutExternalAccount(e)
	}
}
