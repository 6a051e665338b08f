package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/banksecure/paysim/internal/errcode"
	"github.com/banksecure/paysim/internal/models"
)

// Postgres is the durable Ledger implementation. Every call carries a
// timeout so a slow database surfaces as an error instead of a hang.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgres(ctx context.Context, connString string, timeout time.Duration) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Postgres{pool: pool, timeout: timeout}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var u models.User
	err := p.pool.QueryRow(ctx,
		"SELECT id, full_name, email FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.FullName, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const accountColumns = "id, user_id, account_number, balance, status, created_at"

func (p *Postgres) scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.AccountNumber, &a.Balance, &a.Status, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Postgres) GetAccountByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.scanAccount(p.pool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE user_id = $1", userID))
}

func (p *Postgres) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.scanAccount(p.pool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1", id))
}

func (p *Postgres) GetAccountByNumber(ctx context.Context, number string) (*models.Account, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.scanAccount(p.pool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE account_number = $1", number))
}

func (p *Postgres) GetExternalAccount(ctx context.Context, number string) (*models.ExternalAccount, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var a models.ExternalAccount
	err := p.pool.QueryRow(ctx,
		"SELECT account_number, account_holder_name, bank_name, status, balance FROM external_accounts WHERE account_number = $1",
		number,
	).Scan(&a.AccountNumber, &a.HolderName, &a.BankName, &a.Status, &a.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExternalAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Postgres) UpdateAccountBalance(ctx context.Context, accountID int64, newBalance decimal.Decimal) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	tag, err := p.pool.Exec(ctx,
		"UPDATE accounts SET balance = $1 WHERE id = $2", newBalance, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (p *Postgres) UpdateExternalAccountBalance(ctx context.Context, number string, newBalance decimal.Decimal) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	tag, err := p.pool.Exec(ctx,
		"UPDATE external_accounts SET balance = $1 WHERE account_number = $2", newBalance, number)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExternalAccountNotFound
	}
	return nil
}

func (p *Postgres) InsertTransaction(ctx context.Context, txn *models.Transaction) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var code *string
	if txn.ErrorCode != "" {
		s := string(txn.ErrorCode)
		code = &s
	}

	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO transactions
		   (transaction_ref, account_id, transaction_type, amount, before_balance, after_balance,
		    counterparty, status, error_code, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		 RETURNING id`,
		txn.Ref, txn.AccountID, txn.Type, txn.Amount, txn.BeforeBalance, txn.AfterBalance,
		txn.Counterparty, txn.Status, code, txn.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("transaction insert failed: %w", err)
	}
	return id, nil
}

func (p *Postgres) GetTransactionByRef(ctx context.Context, ref string) (*models.Transaction, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var t models.Transaction
	var code *string
	err := p.pool.QueryRow(ctx,
		`SELECT id, transaction_ref, account_id, transaction_type, amount, before_balance,
		        after_balance, counterparty, status, error_code, description, created_at
		   FROM transactions WHERE transaction_ref = $1`, ref,
	).Scan(&t.ID, &t.Ref, &t.AccountID, &t.Type, &t.Amount, &t.BeforeBalance,
		&t.AfterBalance, &t.Counterparty, &t.Status, &code, &t.Description, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	if code != nil {
		t.ErrorCode = errcode.Code(*code)
	}
	return &t, nil
}

func (p *Postgres) UpdateTransactionStatus(ctx context.Context, ref string, status models.TxnStatus, code errcode.Code) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var tag pgconn.CommandTag
	var err error
	if code != "" {
		tag, err = p.pool.Exec(ctx,
			"UPDATE transactions SET status = $1, error_code = $2 WHERE transaction_ref = $3",
			status, string(code), ref)
	} else {
		tag, err = p.pool.Exec(ctx,
			"UPDATE transactions SET status = $1 WHERE transaction_ref = $2", status, ref)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (p *Postgres) ListTransactionsByAccount(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, transaction_ref, account_id, transaction_type, amount, before_balance,
		        after_balance, counterparty, status, error_code, description, created_at
		   FROM transactions WHERE account_id = $1
		  ORDER BY created_at DESC, id DESC LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var code *string
		if err := rows.Scan(&t.ID, &t.Ref, &t.AccountID, &t.Type, &t.Amount, &t.BeforeBalance,
			&t.AfterBalance, &t.Counterparty, &t.Status, &code, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		if code != nil {
			t.ErrorCode = errcode.Code(*code)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) InsertComplaint(ctx context.Context, c *models.Complaint) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var code *string
	if c.ErrorCode != "" {
		s := string(c.ErrorCode)
		code = &s
	}

	var id int64
	err := p.pool.QueryRow(ctx,
		`INSERT INTO complaints
		   (complaint_ref, user_id, transaction_ref, error_code, description, priority, status,
		    root_cause, resolution_action, estimated_resolution, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		 RETURNING id`,
		c.Ref, c.UserID, c.TransactionRef, code, c.Description, c.Priority, c.Status,
		c.RootCause, c.ResolutionAction, c.EstimatedResolution,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("complaint insert failed: %w", err)
	}
	return id, nil
}

func (p *Postgres) GetComplaintByRef(ctx context.Context, ref string) (*models.Complaint, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var c models.Complaint
	var code, notes, refundRef *string
	err := p.pool.QueryRow(ctx,
		`SELECT id, complaint_ref, user_id, transaction_ref, error_code, description, priority,
		        status, root_cause, resolution_action, estimated_resolution, resolution_notes,
		        refund_transaction_ref, created_at
		   FROM complaints WHERE complaint_ref = $1`, ref,
	).Scan(&c.ID, &c.Ref, &c.UserID, &c.TransactionRef, &code, &c.Description, &c.Priority,
		&c.Status, &c.RootCause, &c.ResolutionAction, &c.EstimatedResolution, &notes,
		&refundRef, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, err
	}
	if code != nil {
		c.ErrorCode = errcode.Code(*code)
	}
	if notes != nil {
		c.Notes = *notes
	}
	if refundRef != nil {
		c.RefundTransactionRef = *refundRef
	}
	return &c, nil
}

func (p *Postgres) ListComplaints(ctx context.Context, status models.ComplaintStatus) ([]models.Complaint, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`SELECT id, complaint_ref, user_id, transaction_ref, error_code, description, priority,
		        status, root_cause, resolution_action, estimated_resolution, resolution_notes,
		        refund_transaction_ref, created_at
		   FROM complaints WHERE ($1 = '' OR status = $1)
		  ORDER BY created_at DESC, id DESC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Complaint
	for rows.Next() {
		var c models.Complaint
		var code, notes, refundRef *string
		if err := rows.Scan(&c.ID, &c.Ref, &c.UserID, &c.TransactionRef, &code, &c.Description,
			&c.Priority, &c.Status, &c.RootCause, &c.ResolutionAction, &c.EstimatedResolution,
			&notes, &refundRef, &c.CreatedAt); err != nil {
			return nil, err
		}
		if code != nil {
			c.ErrorCode = errcode.Code(*code)
		}
		if notes != nil {
			c.Notes = *notes
		}
		if refundRef != nil {
			c.RefundTransactionRef = *refundRef
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateComplaint(ctx context.Context, ref string, status models.ComplaintStatus, notes string, refundRef string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var rr *string
	if refundRef != "" {
		rr = &refundRef
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE complaints
		    SET status = $1, resolution_notes = $2,
		        refund_transaction_ref = COALESCE($3, refund_transaction_ref),
		        updated_at = now()
		  WHERE complaint_ref = $4`,
		status, notes, rr, ref)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrComplaintNotFound
	}
	return nil
}
