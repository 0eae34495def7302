package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    "github.com/Ioioiog/dashboardly/internal/model"
)

// RequestRepo provides create/read/update and filtered listing for
// maintenance requests.  There is no delete: cancellation is a status,
// and rows only ever leave through retention policy outside the engine.
// Updates are last-write-wins; the table carries no version column.
type RequestRepo struct {
    db *sql.DB
}

// NewRequestRepo returns a RequestRepo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *RequestRepo) DB() *sql.DB { return r.db }

const requestColumns = `id, property_id, tenant_id, title, description, issue_type, priority,
 images, contact_phone, preferred_times, status, assigned_to,
 service_provider_status, service_provider_notes, service_provider_fee_cents,
 scheduled_day, scheduled_time, scheduled_date,
 cost_estimate_cents, cost_estimate_status, cost_estimate_notes,
 approval_status, approval_notes, payment_amount_cents, payment_status,
 completion_date, completion_report, rating, rating_comment,
 read_by_landlord, read_by_tenant, created_at, updated_at`

// updatableColumns is the allowlist for dynamic UPDATE statements.  Any
// key outside it is a programming error, not caller input, so Update
// fails loudly.
var updatableColumns = map[string]bool{
    "contact_phone":              true,
    "preferred_times":            true,
    "status":                     true,
    "assigned_to":                true,
    "service_provider_status":    true,
    "service_provider_notes":     true,
    "service_provider_fee_cents": true,
    "scheduled_day":              true,
    "scheduled_time":             true,
    "scheduled_date":             true,
    "cost_estimate_cents":        true,
    "cost_estimate_status":       true,
    "cost_estimate_notes":        true,
    "approval_status":            true,
    "approval_notes":             true,
    "payment_amount_cents":       true,
    "payment_status":             true,
    "completion_date":            true,
    "completion_report":          true,
    "rating":                     true,
    "rating_comment":             true,
    "read_by_landlord":           true,
    "read_by_tenant":             true,
}

// Create inserts a new request.  Status, the review flags and the read
// flags take their initial values here; the generated ID and the DB
// timestamps are populated on the passed struct.  The three-image cap
// is enforced by the store, not by the schema.
func (r *RequestRepo) Create(ctx context.Context, req *model.MaintenanceRequest) error {
    if len(req.Images) > 3 {
        return ErrTooManyImages
    }
    images, err := json.Marshal(req.Images)
    if err != nil {
        return err
    }
    times, err := json.Marshal(req.PreferredTimes)
    if err != nil {
        return err
    }
    const q = `INSERT INTO maintenance_requests
 (property_id, tenant_id, title, description, issue_type, priority, images, contact_phone, preferred_times,
  status, cost_estimate_status, approval_status, read_by_landlord, read_by_tenant)
 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        req.PropertyID, req.TenantID, req.Title, req.Description, req.IssueType, req.Priority,
        string(images), req.ContactPhone, string(times),
        model.StatusPending, model.ReviewPending, model.ReviewPending,
        req.ReadByLandlord, req.ReadByTenant,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    req.ID = uint64(id)
    got, err := r.GetByID(ctx, req.ID)
    if err != nil {
        return err
    }
    *req = *got
    return nil
}

// GetByID returns a single request or ErrNotFound.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (*model.MaintenanceRequest, error) {
    q := `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE id = ?`
    return scanRequest(r.db.QueryRowContext(ctx, q, id))
}

// ListForOwner returns requests on properties owned by ownerID, newest
// first.  An empty status means no status filter.
func (r *RequestRepo) ListForOwner(ctx context.Context, ownerID uint64, status string) ([]*model.MaintenanceRequest, error) {
    q := `SELECT ` + prefixColumns("m") + `
 FROM maintenance_requests m
 JOIN properties p ON p.id = m.property_id
 WHERE p.owner_id = ?`
    args := []any{ownerID}
    if status != "" {
        q += ` AND m.status = ?`
        args = append(args, status)
    }
    q += ` ORDER BY m.created_at DESC, m.id DESC`
    return r.list(ctx, q, args...)
}

// ListForTenant returns the tenant's own requests, newest first.
func (r *RequestRepo) ListForTenant(ctx context.Context, tenantID uint64, status string) ([]*model.MaintenanceRequest, error) {
    q := `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE tenant_id = ?`
    args := []any{tenantID}
    if status != "" {
        q += ` AND status = ?`
        args = append(args, status)
    }
    q += ` ORDER BY created_at DESC, id DESC`
    return r.list(ctx, q, args...)
}

// ListForContractor returns requests assigned to the contractor, newest
// first.
func (r *RequestRepo) ListForContractor(ctx context.Context, contractorID uint64, status string) ([]*model.MaintenanceRequest, error) {
    q := `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE assigned_to = ?`
    args := []any{contractorID}
    if status != "" {
        q += ` AND status = ?`
        args = append(args, status)
    }
    q += ` ORDER BY created_at DESC, id DESC`
    return r.list(ctx, q, args...)
}

func (r *RequestRepo) list(ctx context.Context, q string, args ...any) ([]*model.MaintenanceRequest, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []*model.MaintenanceRequest
    for rows.Next() {
        req, err := scanRequest(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, req)
    }
    return out, rows.Err()
}

// Update applies the given column/value pairs to one request.  Keys must
// come from updatableColumns; values may be nil to clear a nullable
// column.  Slices are stored as JSON.
func (r *RequestRepo) Update(ctx context.Context, id uint64, set map[string]any) error {
    if len(set) == 0 {
        return nil
    }
    clauses := make([]string, 0, len(set))
    args := make([]any, 0, len(set)+1)
    for col, val := range set {
        if !updatableColumns[col] {
            return fmt.Errorf("column %q is not updatable", col)
        }
        if s, ok := val.([]string); ok {
            b, err := json.Marshal(s)
            if err != nil {
                return err
            }
            val = string(b)
        }
        clauses = append(clauses, col+" = ?")
        args = append(args, val)
    }
    args = append(args, id)
    q := `UPDATE maintenance_requests SET ` + strings.Join(clauses, ", ") + ` WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // Either the row is missing or the values already match; only
        // the former is an error.
        if _, err := r.GetByID(ctx, id); err != nil {
            return err
        }
    }
    return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*model.MaintenanceRequest, error) {
    var (
        req            model.MaintenanceRequest
        images         string
        preferredTimes string
        assignedTo     sql.NullInt64
        spStatus       sql.NullString
        spNotes        sql.NullString
        spFee          sql.NullInt64
        schedDay       sql.NullTime
        schedTime      sql.NullString
        schedDate      sql.NullTime
        estimate       sql.NullInt64
        estimateNotes  sql.NullString
        approvalNotes  sql.NullString
        payment        sql.NullInt64
        paymentStatus  sql.NullString
        completionDate sql.NullTime
        completionRep  sql.NullString
        rating         sql.NullInt64
        ratingComment  sql.NullString
    )
    err := row.Scan(
        &req.ID, &req.PropertyID, &req.TenantID, &req.Title, &req.Description, &req.IssueType, &req.Priority,
        &images, &req.ContactPhone, &preferredTimes, &req.Status, &assignedTo,
        &spStatus, &spNotes, &spFee,
        &schedDay, &schedTime, &schedDate,
        &estimate, &req.CostEstimateStatus, &estimateNotes,
        &req.ApprovalStatus, &approvalNotes, &payment, &paymentStatus,
        &completionDate, &completionRep, &rating, &ratingComment,
        &req.ReadByLandlord, &req.ReadByTenant, &req.CreatedAt, &req.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if err := json.Unmarshal([]byte(images), &req.Images); err != nil {
        return nil, fmt.Errorf("images column: %w", err)
    }
    if err := json.Unmarshal([]byte(preferredTimes), &req.PreferredTimes); err != nil {
        return nil, fmt.Errorf("preferred_times column: %w", err)
    }
    req.AssignedTo = nullUint64(assignedTo)
    req.ServiceProviderStatus = nullString(spStatus)
    req.ServiceProviderNotes = nullString(spNotes)
    req.ServiceProviderFeeCents = nullInt64(spFee)
    req.ScheduledDay = nullTime(schedDay)
    req.ScheduledTime = nullString(schedTime)
    req.ScheduledDate = nullTime(schedDate)
    req.CostEstimateCents = nullInt64(estimate)
    req.CostEstimateNotes = nullString(estimateNotes)
    req.ApprovalNotes = nullString(approvalNotes)
    req.PaymentAmountCents = nullInt64(payment)
    req.PaymentStatus = nullString(paymentStatus)
    req.CompletionDate = nullTime(completionDate)
    req.CompletionReport = nullString(completionRep)
    if rating.Valid {
        v := uint8(rating.Int64)
        req.Rating = &v
    }
    req.RatingComment = nullString(ratingComment)
    return &req, nil
}

// prefixColumns qualifies the shared column list with a table alias for
// joined queries.
func prefixColumns(alias string) string {
    parts := strings.Split(requestColumns, ",")
    for i, p := range parts {
        parts[i] = alias + "." + strings.TrimSpace(p)
    }
    return strings.Join(parts, ", ")
}

func nullString(v sql.NullString) *string {
    if !v.Valid {
        return nil
    }
    s := v.String
    return &s
}

func nullInt64(v sql.NullInt64) *int64 {
    if !v.Valid {
        return nil
    }
    n := v.Int64
    return &n
}

func nullUint64(v sql.NullInt64) *uint64 {
    if !v.Valid {
        return nil
    }
    n := uint64(v.Int64)
    return &n
}

func nullTime(v sql.NullTime) *time.Time {
    if !v.Valid {
        return nil
    }
    t := v.Time
    return &t
}
