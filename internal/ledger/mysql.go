package ledger

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "strings"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// MySQLLedger persists reservations in the reservations table.  All
// DATETIME columns are stored in UTC (the connection DSN sets loc=UTC and
// parseTime=true).  Uniqueness of id, confirmation_number and
// idempotency_key is enforced by the schema, so a concurrent duplicate
// insert surfaces as ErrDuplicateKey rather than a silent double booking.
type MySQLLedger struct {
    db *sql.DB
}

// NewMySQL returns a MySQLLedger bound to the given database.
func NewMySQL(db *sql.DB) *MySQLLedger { return &MySQLLedger{db: db} }

const reservationColumns = `id, resource_id, customer_id, starts_at, ends_at, status,
    cost_cents, deposit_cents, fees, confirmation_number, idempotency_key,
    payment_status, payment_ref, refund_cents, hold_expires_at, attributes,
    created_at, updated_at`

// isDuplicateEntry reports whether err is the MySQL duplicate-key error
// (1062) raised on any of the unique indexes.
func isDuplicateEntry(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}

func (l *MySQLLedger) Insert(ctx context.Context, res model.Reservation) error {
    fees, err := json.Marshal(res.Fees)
    if err != nil {
        return err
    }
    attrs, err := json.Marshal(res.Attributes)
    if err != nil {
        return err
    }
    var idem sql.NullString
    if res.IdempotencyKey != "" {
        idem = sql.NullString{String: res.IdempotencyKey, Valid: true}
    }
    var holdExp sql.NullTime
    if !res.HoldExpiresAt.IsZero() {
        holdExp = sql.NullTime{Time: res.HoldExpiresAt.UTC(), Valid: true}
    }
    const q = `INSERT INTO reservations
        (id, resource_id, customer_id, starts_at, ends_at, status,
         cost_cents, deposit_cents, fees, confirmation_number, idempotency_key,
         payment_status, payment_ref, refund_cents, hold_expires_at, attributes,
         created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err = l.db.ExecContext(ctx, q,
        res.ID, res.ResourceID, res.CustomerID,
        res.Interval.Start.UTC(), res.Interval.End.UTC(),
        string(res.Status),
        res.CostCents, res.DepositCents, string(fees),
        res.ConfirmationNumber, idem,
        string(res.PaymentStatus), res.PaymentRef, res.RefundCents,
        holdExp, string(attrs),
        res.CreatedAt.UTC(), res.UpdatedAt.UTC(),
    )
    if isDuplicateEntry(err) {
        return ErrDuplicateKey
    }
    return err
}

func (l *MySQLLedger) Update(ctx context.Context, res model.Reservation) error {
    fees, err := json.Marshal(res.Fees)
    if err != nil {
        return err
    }
    attrs, err := json.Marshal(res.Attributes)
    if err != nil {
        return err
    }
    var holdExp sql.NullTime
    if !res.HoldExpiresAt.IsZero() {
        holdExp = sql.NullTime{Time: res.HoldExpiresAt.UTC(), Valid: true}
    }
    const q = `UPDATE reservations SET
        starts_at = ?, ends_at = ?, status = ?, cost_cents = ?, deposit_cents = ?,
        fees = ?, payment_status = ?, payment_ref = ?, refund_cents = ?,
        hold_expires_at = ?, attributes = ?, updated_at = ?
        WHERE id = ?`
    result, err := l.db.ExecContext(ctx, q,
        res.Interval.Start.UTC(), res.Interval.End.UTC(),
        string(res.Status), res.CostCents, res.DepositCents,
        string(fees), string(res.PaymentStatus), res.PaymentRef, res.RefundCents,
        holdExp, string(attrs),
        res.UpdatedAt.UTC(),
        res.ID,
    )
    if err != nil {
        return err
    }
    affected, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        // MySQL reports zero affected rows when the values already match;
        // confirm existence before reporting not-found.
        var one int
        if err := l.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, res.ID).Scan(&one); err != nil {
            if errors.Is(err, sql.ErrNoRows) {
                return ErrNotFound
            }
            return err
        }
    }
    return nil
}

func (l *MySQLLedger) GetByID(ctx context.Context, id string) (model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    return scanReservation(l.db.QueryRowContext(ctx, q, id))
}

func (l *MySQLLedger) GetByIdempotencyKey(ctx context.Context, key string) (model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE idempotency_key = ?`
    return scanReservation(l.db.QueryRowContext(ctx, q, key))
}

// GetOverlapping applies the half-open overlap test in SQL: the stored
// interval [starts_at, ends_at) overlaps [start, end) iff
// starts_at < end AND ends_at > start.
func (l *MySQLLedger) GetOverlapping(ctx context.Context, resourceID string, iv model.Interval, statuses []model.Status) ([]model.Reservation, error) {
    if len(statuses) == 0 {
        return []model.Reservation{}, nil
    }
    placeholders := make([]string, 0, len(statuses))
    args := []interface{}{resourceID}
    for _, s := range statuses {
        placeholders = append(placeholders, "?")
        args = append(args, string(s))
    }
    args = append(args, iv.End.UTC(), iv.Start.UTC())
    q := `SELECT ` + reservationColumns + ` FROM reservations
          WHERE resource_id = ?
            AND status IN (` + strings.Join(placeholders, ",") + `)
            AND starts_at < ? AND ends_at > ?`
    return l.scanMany(ctx, q, args...)
}

func (l *MySQLLedger) ListByCustomer(ctx context.Context, customerID string) ([]model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations
               WHERE customer_id = ? ORDER BY created_at DESC`
    return l.scanMany(ctx, q, customerID)
}

func (l *MySQLLedger) ListExpiredPending(ctx context.Context, now time.Time) ([]model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations
               WHERE status = 'PENDING' AND hold_expires_at IS NOT NULL AND hold_expires_at <= ?`
    return l.scanMany(ctx, q, now.UTC())
}

func (l *MySQLLedger) ListDueForActivation(ctx context.Context, now time.Time) ([]model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations
               WHERE status = 'CONFIRMED' AND starts_at <= ?`
    return l.scanMany(ctx, q, now.UTC())
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
    var res model.Reservation
    var start, end, created, updated time.Time
    var status, paymentStatus, feesJSON, attrsJSON string
    var idem, payRef sql.NullString
    var holdExp sql.NullTime
    err := row.Scan(
        &res.ID, &res.ResourceID, &res.CustomerID,
        &start, &end, &status,
        &res.CostCents, &res.DepositCents, &feesJSON,
        &res.ConfirmationNumber, &idem,
        &paymentStatus, &payRef, &res.RefundCents,
        &holdExp, &attrsJSON,
        &created, &updated,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Reservation{}, ErrNotFound
        }
        return model.Reservation{}, err
    }
    res.Interval = model.NewInterval(start, end)
    parsed, err := model.ParseStatus(status)
    if err != nil {
        return model.Reservation{}, err
    }
    res.Status = parsed
    res.PaymentStatus = model.PaymentStatus(paymentStatus)
    if idem.Valid {
        res.IdempotencyKey = idem.String
    }
    if payRef.Valid {
        ref := payRef.String
        res.PaymentRef = &ref
    }
    if holdExp.Valid {
        res.HoldExpiresAt = holdExp.Time.UTC()
    }
    if feesJSON != "" && feesJSON != "null" {
        if err := json.Unmarshal([]byte(feesJSON), &res.Fees); err != nil {
            return model.Reservation{}, err
        }
    }
    if attrsJSON != "" && attrsJSON != "null" {
        if err := json.Unmarshal([]byte(attrsJSON), &res.Attributes); err != nil {
            return model.Reservation{}, err
        }
    }
    res.CreatedAt = created.UTC()
    res.UpdatedAt = updated.UTC()
    return res, nil
}

func (l *MySQLLedger) scanMany(ctx context.Context, q string, args ...interface{}) ([]model.Reservation, error) {
    rows, err := l.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
