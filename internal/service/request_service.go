package service

import (
    "context"
    "encoding/base64"
    "errors"
    "log"
    "math"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"

    "github.com/Ioioiog/dashboardly/internal/authz"
    "github.com/Ioioiog/dashboardly/internal/cost"
    "github.com/Ioioiog/dashboardly/internal/event"
    "github.com/Ioioiog/dashboardly/internal/lifecycle"
    "github.com/Ioioiog/dashboardly/internal/model"
    "github.com/Ioioiog/dashboardly/internal/queue"
    "github.com/Ioioiog/dashboardly/internal/schedule"
)

// RequestService owns the maintenance-request lifecycle: creation,
// field-level mutation, status transitions, assignment, scheduling,
// rating and documents.  Authorization and lifecycle checks run before
// any persistence; accepted mutations are broadcast afterwards.
type RequestService struct {
    store     RequestStore
    documents DocumentStore
    directory Directory
    blobs     BlobStore
    bus       event.Bus
    audit     AuditPublisher
    validate  *validator.Validate
    now       func() time.Time
}

// NewRequestService wires the service.  audit may be nil to disable the
// broker trail; bus must not be nil (use event.NopBus).
func NewRequestService(store RequestStore, documents DocumentStore, directory Directory, blobs BlobStore, bus event.Bus, audit AuditPublisher) *RequestService {
    return &RequestService{
        store:     store,
        documents: documents,
        directory: directory,
        blobs:     blobs,
        bus:       bus,
        audit:     audit,
        validate:  validator.New(),
        now:       time.Now,
    }
}

// ImageUpload is one base64-encoded image in a creation payload.
type ImageUpload struct {
    Data string `json:"data" validate:"required"`
    Ext  string `json:"ext" validate:"required,max=8"`
}

// CreateRequestInput is the creation payload.  PropertyID is only
// consulted for landlord-created requests; tenants always file against
// the property they occupy.
type CreateRequestInput struct {
    PropertyID     uint64        `json:"property_id"`
    TenantID       uint64        `json:"tenant_id"`
    Title          string        `json:"title" validate:"required,max=200"`
    Description    string        `json:"description" validate:"required,max=4000"`
    IssueType      string        `json:"issue_type" validate:"required,max=100"`
    Priority       string        `json:"priority" validate:"required,oneof=low medium high"`
    ContactPhone   string        `json:"contact_phone" validate:"omitempty,max=32"`
    PreferredTimes []string      `json:"preferred_times" validate:"max=8,dive,max=50"`
    Images         []ImageUpload `json:"images" validate:"max=3,dive"`
}

// Create files a new request with status pending.  Image blobs are
// uploaded before the row is inserted; an insert failure therefore
// strands the uploaded blobs, which is the documented gap of the
// two-step protocol.
func (s *RequestService) Create(ctx context.Context, actor Actor, in CreateRequestInput) (*model.MaintenanceRequest, error) {
    if err := s.validate.Struct(in); err != nil {
        return nil, asValidationError(err)
    }

    var propertyID, tenantID uint64
    switch actor.Role {
    case model.RoleTenant:
        pid, err := s.directory.TenantProperty(ctx, actor.ID)
        if err != nil {
            return nil, &ValidationError{Field: "property_id", Reason: "no active tenancy for caller"}
        }
        propertyID, tenantID = pid, actor.ID
    case model.RoleLandlord:
        if in.PropertyID == 0 {
            return nil, &ValidationError{Field: "property_id", Reason: "required"}
        }
        ownerID, err := s.directory.PropertyOwner(ctx, in.PropertyID)
        if err != nil || ownerID != actor.ID {
            return nil, ErrAccessDenied
        }
        if in.TenantID == 0 {
            return nil, &ValidationError{Field: "tenant_id", Reason: "required"}
        }
        propertyID, tenantID = in.PropertyID, in.TenantID
    default:
        return nil, ErrAccessDenied
    }

    urls := make([]string, 0, len(in.Images))
    for _, img := range in.Images {
        data, err := decodeImage(img.Data)
        if err != nil {
            return nil, &ValidationError{Field: "images", Reason: "invalid base64 payload"}
        }
        u, err := s.blobs.SaveImage(data, img.Ext)
        if err != nil {
            return nil, err
        }
        urls = append(urls, u)
    }

    req := &model.MaintenanceRequest{
        PropertyID:     propertyID,
        TenantID:       tenantID,
        Title:          in.Title,
        Description:    in.Description,
        IssueType:      in.IssueType,
        Priority:       in.Priority,
        Images:         urls,
        ContactPhone:   in.ContactPhone,
        PreferredTimes: in.PreferredTimes,
        Status:         model.StatusPending,
        // The creator has obviously seen their own request.
        ReadByLandlord: actor.Role == model.RoleLandlord,
        ReadByTenant:   actor.Role == model.RoleTenant,
    }
    if err := s.store.Create(ctx, req); err != nil {
        return nil, err
    }

    s.publishAudit(ctx, req, actor, "created", "", req.Status)
    s.broadcast(ctx, event.TypeRequestCreated, req, actor, nil)
    return req, nil
}

// Get returns one request after a scope check.
func (s *RequestService) Get(ctx context.Context, actor Actor, id uint64) (*model.MaintenanceRequest, error) {
    req, err := s.store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    ok, err := inScope(ctx, s.directory, actor, req)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, ErrAccessDenied
    }
    return req, nil
}

// List returns the requests in the actor's scope, optionally filtered
// by status.
func (s *RequestService) List(ctx context.Context, actor Actor, status string) ([]*model.MaintenanceRequest, error) {
    if status != "" && !model.ValidStatus(status) {
        return nil, &ValidationError{Field: "status", Reason: "unknown status"}
    }
    switch actor.Role {
    case model.RoleLandlord:
        return s.store.ListForOwner(ctx, actor.ID, status)
    case model.RoleTenant:
        return s.store.ListForTenant(ctx, actor.ID, status)
    case model.RoleContractor:
        return s.store.ListForContractor(ctx, actor.ID, status)
    }
    return nil, ErrAccessDenied
}

// patchColumn maps a patchable API field to its column and coercion.
var patchColumns = map[string]string{
    "contact_phone":           "contact_phone",
    "preferred_times":         "preferred_times",
    "service_provider_status": "service_provider_status",
    "service_provider_notes":  "service_provider_notes",
    "service_provider_fee":    "service_provider_fee_cents",
    "cost_estimate":           "cost_estimate_cents",
    "cost_estimate_status":    "cost_estimate_status",
    "cost_estimate_notes":     "cost_estimate_notes",
    "approval_status":         "approval_status",
    "approval_notes":          "approval_notes",
    "payment_amount":          "payment_amount_cents",
    "payment_status":          "payment_status",
    "completion_report":       "completion_report",
}

// moneyFields are coerced to integer cents.
var moneyFields = map[string]bool{
    "service_provider_fee": true,
    "cost_estimate":        true,
    "payment_amount":       true,
}

// reviewFields accept only the pending/approved/rejected states.
var reviewFields = map[string]bool{
    "cost_estimate_status": true,
    "approval_status":      true,
}

// Patch applies field-level mutations.  Every field passes the
// authorizer first; a single rejected field rejects the whole patch
// before anything persists, so a forbidden write never partially
// mutates the entity.
func (s *RequestService) Patch(ctx context.Context, actor Actor, id uint64, fields map[string]any) (*model.MaintenanceRequest, error) {
    req, err := s.Get(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    if len(fields) == 0 {
        return req, nil
    }

    set := make(map[string]any, len(fields)+2)
    for field, raw := range fields {
        col, ok := patchColumns[field]
        if !ok {
            switch field {
            case "status", "assigned_to", "scheduled_date", "rating", "rating_comment":
                return nil, &ValidationError{Field: field, Reason: "use the dedicated operation"}
            }
            return nil, &ValidationError{Field: field, Reason: "unknown field"}
        }
        if err := authz.CheckWrite(actor.Role, field, req); err != nil {
            return nil, err
        }
        val, err := coercePatchValue(field, raw)
        if err != nil {
            return nil, err
        }
        set[col] = val
    }

    // The estimate review flag may only leave pending while a non-null
    // estimate will exist after this patch: either one arrives here, or
    // one is already stored and not being cleared.
    if v, ok := set["cost_estimate_status"]; ok {
        if st, _ := v.(string); st != model.ReviewPending {
            est, arriving := set["cost_estimate_cents"]
            missing := arriving && est == nil || !arriving && req.CostEstimateCents == nil
            if missing {
                return nil, &ValidationError{Field: "cost_estimate_status", Reason: "no cost estimate to review"}
            }
        }
    }

    applyReadFlags(set, actor.Role)
    if err := s.store.Update(ctx, id, set); err != nil {
        return nil, err
    }
    updated, err := s.store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    s.broadcast(ctx, event.TypeRequestUpdated, updated, actor, nil)
    return updated, nil
}

// Transition requests a status change through the lifecycle table.
// Requesting the current status is a no-op and publishes nothing.
func (s *RequestService) Transition(ctx context.Context, actor Actor, id uint64, to string) (*model.MaintenanceRequest, error) {
    req, err := s.Get(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    apply, err := lifecycle.Check(req, to, actor.Role)
    if err != nil {
        return nil, err
    }
    if !apply {
        return req, nil
    }

    from := req.Status
    set := map[string]any{"status": to}
    if to == model.StatusCompleted {
        set["completion_date"] = s.now().UTC()
    }
    applyReadFlags(set, actor.Role)
    if err := s.store.Update(ctx, id, set); err != nil {
        return nil, err
    }
    updated, err := s.store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    s.publishAudit(ctx, updated, actor, "status_changed", from, to)
    s.broadcast(ctx, event.TypeStatusChanged, updated, actor, nil)
    return updated, nil
}

// Assign points the request at a contractor.  Assignment never moves
// the status by itself; the landlord starts work explicitly.
func (s *RequestService) Assign(ctx context.Context, actor Actor, id uint64, contractorID uint64) (*model.MaintenanceRequest, error) {
    req, err := s.Get(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    if err := authz.CheckWrite(actor.Role, "assigned_to", req); err != nil {
        return nil, err
    }
    if req.Status != model.StatusPending && req.Status != model.StatusInProgress {
        return nil, &ValidationError{Field: "assigned_to", Reason: "request is " + req.Status}
    }
    u, err := s.directory.User(ctx, contractorID)
    if err != nil || u.Role != model.RoleContractor {
        return nil, &ValidationError{Field: "assigned_to", Reason: "not a contractor"}
    }

    set := map[string]any{"assigned_to": contractorID}
    applyReadFlags(set, actor.Role)
    if err := s.store.Update(ctx, id, set); err != nil {
        return nil, err
    }
    updated, err := s.store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    s.broadcast(ctx, event.TypeRequestUpdated, updated, actor, nil)
    return updated, nil
}

// SetScheduleDay records the visit day, preserving any chosen time.
// nil clears the component.
func (s *RequestService) SetScheduleDay(ctx context.Context, actor Actor, id uint64, day *time.Time) (*model.MaintenanceRequest, error) {
    req, err := s.Get(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    if err := authz.CheckWrite(actor.Role, "scheduled_date", req); err != nil {
        return nil, err
    }
    if day != nil {
        if err := schedule.ValidateDay(*day, s.now()); err != nil {
            return nil, err
        }
        d := day.UTC().Truncate(24 * time.Hour)
        day = &d
    }
    return s.applySchedule(ctx, actor, id, map[string]any{"scheduled_day": timeOrNil(day)})
}

// SetScheduleTime records the visit time-of-day ("15:04"), preserving
// any chosen day.  nil clears the component.
func (s *RequestService) SetScheduleTime(ctx context.Context, actor Actor, id uint64, timeOfDay *string) (*model.MaintenanceRequest, error) {
    req, err := s.Get(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    if err := authz.CheckWrite(actor.Role, "scheduled_date", req); err != nil {
        return nil, err
    }
    if timeOfDay != nil {
        if err := schedule.ValidateTimeOfDay(*timeOfDay); err != nil {
            return nil, &ValidationError{Field: "scheduled_time", Reason: "expected HH:MM"}
        }
    }
    return s.applySchedule(ctx, actor, id, map[string]any{"scheduled_time": stringOrNil(timeOfDay)})
}

// CommitSchedule merges the drafted components into scheduled_date.
// With both components absent it clears the committed instant, which is
// the only un-scheduling path.
func (s *RequestService) CommitSchedule(ctx context.Context, actor Actor, id uint64) (*model.MaintenanceRequest, error) {
    req, err := s.Get(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    if err := authz.CheckWrite(actor.Role, "scheduled_date", req); err != nil {
        return nil, err
    }
    if req.ScheduledDay == nil && req.ScheduledTime == nil {
        return s.applySchedule(ctx, actor, id, map[string]any{"scheduled_date": nil})
    }
    at, err := schedule.Commit(req.ScheduledDay, req.ScheduledTime, s.now())
    if err != nil {
        return nil, err
    }
    return s.applySchedule(ctx, actor, id, map[string]any{"scheduled_date": at})
}

func (s *RequestService) applySchedule(ctx context.Context, actor Actor, id uint64, set map[string]any) (*model.MaintenanceRequest, error) {
    applyReadFlags(set, actor.Role)
    if err := s.store.Update(ctx, id, set); err != nil {
        return nil, err
    }
    updated, err := s.store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    s.broadcast(ctx, event.TypeRequestUpdated, updated, actor, nil)
    return updated, nil
}

// Rate lets the tenant score completed work, 0 through 5.
func (s *RequestService) Rate(ctx context.Context, actor Actor, id uint64, rating uint8, comment string) (*model.MaintenanceRequest, error) {
    req, err := s.Get(ctx, actor, id)
    if err != nil {
        return nil, err
    }
    if err := authz.CheckWrite(actor.Role, "rating", req); err != nil {
        return nil, err
    }
    if rating > 5 {
        return nil, &ValidationError{Field: "rating", Reason: "must be between 0 and 5"}
    }
    set := map[string]any{"rating": rating, "rating_comment": comment}
    applyReadFlags(set, actor.Role)
    if err := s.store.Update(ctx, id, set); err != nil {
        return nil, err
    }
    updated, err := s.store.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    s.broadcast(ctx, event.TypeRequestUpdated, updated, actor, nil)
    return updated, nil
}

// View renders a request as the API shape, with the cost total
// recomputed at this single point and never stored.
func View(req *model.MaintenanceRequest) map[string]any {
    return map[string]any{
        "id":                      req.ID,
        "property_id":             req.PropertyID,
        "tenant_id":               req.TenantID,
        "title":                   req.Title,
        "description":             req.Description,
        "issue_type":              req.IssueType,
        "priority":                req.Priority,
        "images":                  req.Images,
        "contact_phone":           req.ContactPhone,
        "preferred_times":         req.PreferredTimes,
        "status":                  req.Status,
        "assigned_to":             req.AssignedTo,
        "service_provider_status": req.ServiceProviderStatus,
        "service_provider_notes":  req.ServiceProviderNotes,
        "service_provider_fee":    req.ServiceProviderFeeCents,
        "scheduled_date":          req.ScheduledDate,
        "cost_estimate":           req.CostEstimateCents,
        "cost_estimate_status":    req.CostEstimateStatus,
        "cost_estimate_notes":     req.CostEstimateNotes,
        "approval_status":         req.ApprovalStatus,
        "approval_notes":          req.ApprovalNotes,
        "payment_amount":          req.PaymentAmountCents,
        "payment_status":          req.PaymentStatus,
        "completion_date":         req.CompletionDate,
        "completion_report":       req.CompletionReport,
        "rating":                  req.Rating,
        "rating_comment":          req.RatingComment,
        "read_by_landlord":        req.ReadByLandlord,
        "read_by_tenant":          req.ReadByTenant,
        "cost_total":              cost.Total(req.CostEstimateCents, req.ServiceProviderFeeCents),
        "created_at":              req.CreatedAt,
        "updated_at":              req.UpdatedAt,
    }
}

// RenderFor filters the view down to what the role may see.
func RenderFor(role string, req *model.MaintenanceRequest) map[string]any {
    return authz.Filter(role, req, View(req))
}

// applyReadFlags resets the counterpart's read flag on any accepted
// write.  The writer's own flag is never touched; contractor writes
// mark the request unread for both parties.
func applyReadFlags(set map[string]any, role string) {
    switch role {
    case model.RoleLandlord:
        set["read_by_tenant"] = false
    case model.RoleTenant:
        set["read_by_landlord"] = false
    case model.RoleContractor:
        set["read_by_landlord"] = false
        set["read_by_tenant"] = false
    }
}

func (s *RequestService) broadcast(ctx context.Context, typ string, req *model.MaintenanceRequest, actor Actor, payload []byte) {
    ev := event.Event{
        Type:       typ,
        RequestID:  req.ID,
        PropertyID: req.PropertyID,
        ActorID:    actor.ID,
        ActorRole:  actor.Role,
        Payload:    payload,
        OccurredAt: s.now().UTC(),
    }
    if err := s.bus.Publish(ctx, event.RequestChannel(req.ID), ev); err != nil {
        log.Printf("request-service: publish to request channel failed: %v", err)
    }
    if err := s.bus.Publish(ctx, event.Firehose, ev); err != nil {
        log.Printf("request-service: publish to firehose failed: %v", err)
    }
}

func (s *RequestService) publishAudit(ctx context.Context, req *model.MaintenanceRequest, actor Actor, action, from, to string) {
    if s.audit == nil {
        return
    }
    ev := queue.MaintenanceEvent{
        RequestID:  req.ID,
        PropertyID: req.PropertyID,
        TenantID:   req.TenantID,
        Title:      req.Title,
        Action:     action,
        FromStatus: from,
        ToStatus:   to,
        ActorID:    actor.ID,
        ActorRole:  actor.Role,
        OccurredAt: s.now().UTC().Format(time.RFC3339),
    }
    if err := s.audit(ctx, ev); err != nil {
        log.Printf("request-service: audit publish failed: %v", err)
    }
}

func asValidationError(err error) error {
    var verrs validator.ValidationErrors
    if errors.As(err, &verrs) && len(verrs) > 0 {
        first := verrs[0]
        return &ValidationError{Field: snakeCase(first.Field()), Reason: "failed " + first.Tag() + " constraint"}
    }
    return &ValidationError{Field: "body", Reason: err.Error()}
}

// snakeCase maps the Go field name reported by the validator onto the
// JSON field name surfaced to callers.
func snakeCase(s string) string {
    var b strings.Builder
    var prev rune
    for i, r := range s {
        orig := r
        if r >= 'A' && r <= 'Z' {
            if i > 0 && (prev < 'A' || prev > 'Z') {
                b.WriteByte('_')
            }
            r += 'a' - 'A'
        }
        b.WriteRune(r)
        prev = orig
    }
    return b.String()
}

// decodeImage accepts raw base64 or a data URI and returns the bytes.
func decodeImage(src string) ([]byte, error) {
    if i := strings.Index(src, ","); i != -1 && strings.HasPrefix(src, "data:") {
        src = src[i+1:]
    }
    return base64.StdEncoding.DecodeString(src)
}

func coercePatchValue(field string, raw any) (any, error) {
    if raw == nil {
        if reviewFields[field] {
            return nil, &ValidationError{Field: field, Reason: "cannot be null"}
        }
        return nil, nil
    }
    if moneyFields[field] {
        switch v := raw.(type) {
        case float64:
            if v < 0 {
                return nil, &ValidationError{Field: field, Reason: "must not be negative"}
            }
            // Amounts ride in as JSON numbers; anything fractional or
            // beyond int64 cannot be stored as cents.
            if v != math.Trunc(v) || v >= math.MaxInt64 {
                return nil, &ValidationError{Field: field, Reason: "not a whole amount in cents"}
            }
            return int64(v), nil
        case int64:
            if v < 0 {
                return nil, &ValidationError{Field: field, Reason: "must not be negative"}
            }
            return v, nil
        default:
            return nil, &ValidationError{Field: field, Reason: "expected an amount in cents"}
        }
    }
    if reviewFields[field] {
        st, ok := raw.(string)
        if !ok || !model.ValidReview(st) {
            return nil, &ValidationError{Field: field, Reason: "expected pending, approved or rejected"}
        }
        return st, nil
    }
    if field == "preferred_times" {
        switch v := raw.(type) {
        case []string:
            return v, nil
        case []any:
            out := make([]string, 0, len(v))
            for _, item := range v {
                s, ok := item.(string)
                if !ok {
                    return nil, &ValidationError{Field: field, Reason: "expected a list of strings"}
                }
                out = append(out, s)
            }
            return out, nil
        default:
            return nil, &ValidationError{Field: field, Reason: "expected a list of strings"}
        }
    }
    s, ok := raw.(string)
    if !ok {
        return nil, &ValidationError{Field: field, Reason: "expected a string"}
    }
    return s, nil
}

func timeOrNil(t *time.Time) any {
    if t == nil {
        return nil
    }
    return *t
}

func stringOrNil(s *string) any {
    if s == nil {
        return nil
    }
    return *s
}
