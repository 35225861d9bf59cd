package catalog

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/resource-reservation/internal/model"
)

// MySQLCatalog reads resources from the resources table.  The billing unit
// is stored as seconds and rates in cents; all DATETIME columns are UTC.
type MySQLCatalog struct {
    db *sql.DB
}

// NewMySQL returns a MySQLCatalog bound to the given database.
func NewMySQL(db *sql.DB) *MySQLCatalog { return &MySQLCatalog{db: db} }

const resourceColumns = `id, category, rate_per_unit_cents, billing_unit_seconds,
    included_units, included_items, capacity, location, auto_activate,
    created_at, updated_at`

func (c *MySQLCatalog) GetByID(ctx context.Context, id string) (model.Resource, error) {
    const q = `SELECT ` + resourceColumns + ` FROM resources WHERE id = ?`
    res, err := scanResource(c.db.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Resource{}, ErrResourceNotFound
        }
        return model.Resource{}, err
    }
    return res, nil
}

func (c *MySQLCatalog) List(ctx context.Context, category string) ([]model.Resource, error) {
    q := `SELECT ` + resourceColumns + ` FROM resources`
    args := []interface{}{}
    if category != "" {
        q += ` WHERE category = ?`
        args = append(args, category)
    }
    q += ` ORDER BY id`
    rows, err := c.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Resource, 0)
    for rows.Next() {
        res, err := scanResource(rows)
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

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanResource(row rowScanner) (model.Resource, error) {
    var res model.Resource
    var unitSeconds int64
    var created, updated time.Time
    err := row.Scan(
        &res.ID, &res.Category, &res.RatePerUnitCents, &unitSeconds,
        &res.Capacity.IncludedUnits, &res.Capacity.IncludedItems, &res.Capacity.Capacity,
        &res.Location, &res.AutoActivate,
        &created, &updated,
    )
    if err != nil {
        return model.Resource{}, err
    }
    res.BillingUnit = time.Duration(unitSeconds) * time.Second
    res.CreatedAt = created.UTC()
    res.UpdatedAt = updated.UTC()
    return res, nil
}
