package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/coop-ledger/internal/models"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and DDL
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Store is the ledger storage consumed by the service and the aggregator.
// All list methods return rows in insertion order.
type Store interface {
	CreateMember(ctx context.Context, m *models.Member) error
	GetMember(ctx context.Context, id int64) (*models.Member, error)
	ListMembers(ctx context.Context) ([]models.Member, error)

	CreateLoan(ctx context.Context, l *models.Loan) error
	GetLoan(ctx context.Context, id int64) (*models.Loan, error)
	// GetLoanForUpdate reads a loan and holds it against concurrent writers
	// until the surrounding transaction ends. Call it only inside WithTx.
	GetLoanForUpdate(ctx context.Context, id int64) (*models.Loan, error)
	UpdateLoan(ctx context.Context, l *models.Loan) error
	ListLoans(ctx context.Context) ([]models.Loan, error)
	ListLoansByMember(ctx context.Context, memberID int64) ([]models.Loan, error)
	ListLoansByStatus(ctx context.Context, status models.LoanStatus) ([]models.Loan, error)
	ListLoansIssuedBetween(ctx context.Context, from, to time.Time) ([]models.Loan, error)

	CreateInstallment(ctx context.Context, in *models.Installment) error
	ListInstallments(ctx context.Context) ([]models.Installment, error)
	ListInstallmentsByLoan(ctx context.Context, loanID int64) ([]models.Installment, error)
	ListInstallmentsByMember(ctx context.Context, memberID int64) ([]models.Installment, error)
	ListInstallmentsPaidBetween(ctx context.Context, from, to time.Time) ([]models.Installment, error)

	// WithTx runs fn against a store bound to a single transaction.
	// The transaction commits only if fn returns nil.
	WithTx(ctx context.Context, fn func(Store) error) error
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database operations
type Repository struct {
	db      *sql.DB
	q       dbtx
	dialect Dialect
	inTx    bool
}

var _ Store = (*Repository)(nil)

// NewRepository initializes a new repository
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{db: db, q: db, dialect: dialect}
}

// Open connects to the database named by driver and dsn
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	dialect := Dialect(driver)
	if dialect != Postgres && dialect != SQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if dialect == SQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == SQLite {
		// One connection serializes writers and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewRepository(db, dialect), nil
}

// sqliteDSN asks the driver to enable foreign keys on every connection it opens
func sqliteDSN(dsn string) string {
	const pragma = "_pragma=foreign_keys(1)"
	if strings.Contains(dsn, pragma) {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + pragma
	}
	return dsn + "?" + pragma
}

// Ping checks database connectivity
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// WithTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(Store) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	if err := fn(&Repository{db: r.db, q: tx, dialect: r.dialect, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, storageErr("roll back transaction", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

// CreateMember creates a new member in the database
func (r *Repository) CreateMember(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (name, address, phone, joined_on)
		VALUES (?, ?, ?, ?)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, r.rebind(query), m.Name, m.Address, m.Phone, dateString(m.JoinedOn)).
		Scan(&m.ID)
	if err != nil {
		return storageErr("create member", err)
	}
	return nil
}

// GetMember retrieves a member by id
func (r *Repository) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	query := `
		SELECT id, name, address, phone, joined_on
		FROM members
		WHERE id = ?`
	m, err := scanMember(r.q.QueryRowContext(ctx, r.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", models.ErrMemberNotFound, id)
	}
	if err != nil {
		return nil, storageErr("find member", err)
	}
	return m, nil
}

// ListMembers retrieves all members
func (r *Repository) ListMembers(ctx context.Context) ([]models.Member, error) {
	query := `
		SELECT id, name, address, phone, joined_on
		FROM members
		ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("list members", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, storageErr("scan member", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list members", err)
	}
	return members, nil
}

// CreateLoan creates a new loan in the database
func (r *Repository) CreateLoan(ctx context.Context, l *models.Loan) error {
	query := `
		INSERT INTO loans (member_id, principal, total_payable, outstanding, term_days, remaining_days, status, issued_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, r.rebind(query),
		l.MemberID, l.Principal, l.TotalPayable, l.Outstanding, l.TermDays, l.RemainingDays, string(l.Status), dateString(l.IssuedOn)).
		Scan(&l.ID)
	if err != nil {
		return storageErr("create loan", err)
	}
	return nil
}

const loanColumns = `id, member_id, principal, total_payable, outstanding, term_days, remaining_days, status, issued_on`

// GetLoan retrieves a loan by id
func (r *Repository) GetLoan(ctx context.Context, id int64) (*models.Loan, error) {
	return r.getLoan(ctx, r.loanByIDQuery(false), id)
}

// GetLoanForUpdate retrieves a loan by id and locks its row on PostgreSQL.
// SQLite runs on a single connection, so writers are already serialized there.
func (r *Repository) GetLoanForUpdate(ctx context.Context, id int64) (*models.Loan, error) {
	return r.getLoan(ctx, r.loanByIDQuery(true), id)
}

func (r *Repository) loanByIDQuery(forUpdate bool) string {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`
	if forUpdate && r.dialect == Postgres {
		query += ` FOR UPDATE`
	}
	return r.rebind(query)
}

func (r *Repository) getLoan(ctx context.Context, query string, id int64) (*models.Loan, error) {
	l, err := scanLoan(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", models.ErrLoanNotFound, id)
	}
	if err != nil {
		return nil, storageErr("find loan", err)
	}
	return l, nil
}

// UpdateLoan writes the mutable repayment fields of a loan
func (r *Repository) UpdateLoan(ctx context.Context, l *models.Loan) error {
	query := `
		UPDATE loans
		SET outstanding = ?, remaining_days = ?, status = ?
		WHERE id = ?`
	res, err := r.q.ExecContext(ctx, r.rebind(query), l.Outstanding, l.RemainingDays, string(l.Status), l.ID)
	if err != nil {
		return storageErr("update loan", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update loan", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", models.ErrLoanNotFound, l.ID)
	}
	return nil
}

// ListLoans retrieves all loans
func (r *Repository) ListLoans(ctx context.Context) ([]models.Loan, error) {
	return r.queryLoans(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY id`)
}

// ListLoansByMember retrieves the loans of one member
func (r *Repository) ListLoansByMember(ctx context.Context, memberID int64) ([]models.Loan, error) {
	return r.queryLoans(ctx, `SELECT `+loanColumns+` FROM loans WHERE member_id = ? ORDER BY id`, memberID)
}

// ListLoansByStatus retrieves loans with the given status
func (r *Repository) ListLoansByStatus(ctx context.Context, status models.LoanStatus) ([]models.Loan, error) {
	return r.queryLoans(ctx, `SELECT `+loanColumns+` FROM loans WHERE status = ? ORDER BY id`, string(status))
}

// ListLoansIssuedBetween retrieves loans issued on or after from and before to
func (r *Repository) ListLoansIssuedBetween(ctx context.Context, from, to time.Time) ([]models.Loan, error) {
	return r.queryLoans(ctx, `SELECT `+loanColumns+` FROM loans WHERE issued_on >= ? AND issued_on < ? ORDER BY id`,
		dateString(from), dateString(to))
}

func (r *Repository) queryLoans(ctx context.Context, query string, args ...any) ([]models.Loan, error) {
	rows, err := r.q.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, storageErr("list loans", err)
	}
	defer rows.Close()

	loans := []models.Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, storageErr("scan loan", err)
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list loans", err)
	}
	return loans, nil
}

// CreateInstallment appends an installment to the ledger
func (r *Repository) CreateInstallment(ctx context.Context, in *models.Installment) error {
	query := `
		INSERT INTO installments (paid_on, loan_id, member_id, amount, outstanding, status)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, r.rebind(query),
		dateString(in.PaidOn), in.LoanID, in.MemberID, in.Amount, in.Outstanding, string(in.Status)).
		Scan(&in.ID)
	if err != nil {
		return storageErr("create installment", err)
	}
	return nil
}

const installmentColumns = `id, paid_on, loan_id, member_id, amount, outstanding, status`

// ListInstallments retrieves all installments
func (r *Repository) ListInstallments(ctx context.Context) ([]models.Installment, error) {
	return r.queryInstallments(ctx, `SELECT `+installmentColumns+` FROM installments ORDER BY id`)
}

// ListInstallmentsByLoan retrieves installments paid against one loan
func (r *Repository) ListInstallmentsByLoan(ctx context.Context, loanID int64) ([]models.Installment, error) {
	return r.queryInstallments(ctx, `SELECT `+installmentColumns+` FROM installments WHERE loan_id = ? ORDER BY id`, loanID)
}

// ListInstallmentsByMember retrieves installments paid by one member
func (r *Repository) ListInstallmentsByMember(ctx context.Context, memberID int64) ([]models.Installment, error) {
	return r.queryInstallments(ctx, `SELECT `+installmentColumns+` FROM installments WHERE member_id = ? ORDER BY id`, memberID)
}

// ListInstallmentsPaidBetween retrieves installments paid on or after from and before to
func (r *Repository) ListInstallmentsPaidBetween(ctx context.Context, from, to time.Time) ([]models.Installment, error) {
	return r.queryInstallments(ctx, `SELECT `+installmentColumns+` FROM installments WHERE paid_on >= ? AND paid_on < ? ORDER BY id`,
		dateString(from), dateString(to))
}

func (r *Repository) queryInstallments(ctx context.Context, query string, args ...any) ([]models.Installment, error) {
	rows, err := r.q.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, storageErr("list installments", err)
	}
	defer rows.Close()

	installments := []models.Installment{}
	for rows.Next() {
		in, err := scanInstallment(rows)
		if err != nil {
			return nil, storageErr("scan installment", err)
		}
		installments = append(installments, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list installments", err)
	}
	return installments, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", models.ErrStorageFailure, op, err)
}
