package model

import "time"

// Status enumerates the lifecycle states of a maintenance request.
// Transitions between them are validated by the lifecycle package;
// "completed" and "cancelled" are terminal.
const (
    StatusPending    = "pending"
    StatusInProgress = "in_progress"
    StatusCompleted  = "completed"
    StatusCancelled  = "cancelled"
)

// Priority levels accepted at creation time.
const (
    PriorityLow    = "low"
    PriorityMedium = "medium"
    PriorityHigh   = "high"
)

// Review states shared by the cost-estimate and approval flags. The two
// flags are independent of each other and of the main lifecycle.
const (
    ReviewPending  = "pending"
    ReviewApproved = "approved"
    ReviewRejected = "rejected"
)

// Roles carried in the JWT "role" claim. LANDLORD owns the property,
// TENANT occupies it and originates requests, CONTRACTOR executes
// assigned work.
const (
    RoleLandlord   = "LANDLORD"
    RoleTenant     = "TENANT"
    RoleContractor = "CONTRACTOR"
)

// MaintenanceRequest is the shared unit of work between landlord, tenant
// and contractor.  One row per request in maintenance_requests.  Nullable
// columns are pointer fields; money is integer cents.
//
// Scheduling keeps the independently edited day and time-of-day
// (ScheduledDay, ScheduledTime) alongside the committed instant
// (ScheduledDate) so that either component can be changed without
// losing the other.
type MaintenanceRequest struct {
    ID         uint64 // maintenance_requests.id
    PropertyID uint64 // maintenance_requests.property_id
    TenantID   uint64 // maintenance_requests.tenant_id

    Title          string   // maintenance_requests.title
    Description    string   // maintenance_requests.description
    IssueType      string   // maintenance_requests.issue_type
    Priority       string   // maintenance_requests.priority (low|medium|high)
    Images         []string // maintenance_requests.images (JSON array of blob URLs, max 3)
    ContactPhone   string   // maintenance_requests.contact_phone
    PreferredTimes []string // maintenance_requests.preferred_times (JSON array of slot tags)

    Status string // maintenance_requests.status (pending|in_progress|completed|cancelled)

    AssignedTo              *uint64 // maintenance_requests.assigned_to (contractor user id, nullable)
    ServiceProviderStatus   *string // maintenance_requests.service_provider_status
    ServiceProviderNotes    *string // maintenance_requests.service_provider_notes
    ServiceProviderFeeCents *int64  // maintenance_requests.service_provider_fee_cents

    ScheduledDay  *time.Time // maintenance_requests.scheduled_day (date component, draft)
    ScheduledTime *string    // maintenance_requests.scheduled_time ("15:04", draft)
    ScheduledDate *time.Time // maintenance_requests.scheduled_date (committed instant)

    CostEstimateCents  *int64  // maintenance_requests.cost_estimate_cents
    CostEstimateStatus string  // maintenance_requests.cost_estimate_status (pending|approved|rejected)
    CostEstimateNotes  *string // maintenance_requests.cost_estimate_notes
    ApprovalStatus     string  // maintenance_requests.approval_status (pending|approved|rejected)
    ApprovalNotes      *string // maintenance_requests.approval_notes
    PaymentAmountCents *int64  // maintenance_requests.payment_amount_cents
    PaymentStatus      *string // maintenance_requests.payment_status

    CompletionDate   *time.Time // maintenance_requests.completion_date
    CompletionReport *string    // maintenance_requests.completion_report
    Rating           *uint8     // maintenance_requests.rating (0-5)
    RatingComment    *string    // maintenance_requests.rating_comment

    ReadByLandlord bool // maintenance_requests.read_by_landlord
    ReadByTenant   bool // maintenance_requests.read_by_tenant

    CreatedAt time.Time // maintenance_requests.created_at
    UpdatedAt time.Time // maintenance_requests.updated_at
}

// Terminal reports whether the request sits in a state with no outgoing
// transitions.
func (r *MaintenanceRequest) Terminal() bool {
    return r.Status == StatusCompleted || r.Status == StatusCancelled
}

// ValidStatus reports whether s is one of the four lifecycle states.
func ValidStatus(s string) bool {
    switch s {
    case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
        return true
    }
    return false
}

// ValidPriority reports whether p is an accepted priority level.
func ValidPriority(p string) bool {
    switch p {
    case PriorityLow, PriorityMedium, PriorityHigh:
        return true
    }
    return false
}

// ValidReview reports whether s is an accepted review state for the
// cost-estimate or approval flags.
func ValidReview(s string) bool {
    switch s {
    case ReviewPending, ReviewApproved, ReviewRejected:
        return true
    }
    return false
}
