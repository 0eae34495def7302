// Package authz is the capability table gating field-level access to
// maintenance requests.  It replaces scattered per-screen role checks
// with a single pure lookup keyed by (role, field), consulted before
// every field mutation and used to filter fields out of responses.
package authz

import (
    "fmt"

    "github.com/Ioioiog/dashboardly/internal/model"
)

// Access is the capability a role holds over a field.
type Access int

const (
    // Hidden fields are absent from the role's view of the request.
    Hidden Access = iota
    // ReadOnly fields are visible but rejected on write.
    ReadOnly
    // Writable fields accept mutations from the role.
    Writable
)

// ForbiddenFieldError names the field so the rejection is surfaced
// verbatim, never silently downgraded.
type ForbiddenFieldError struct {
    Role  string
    Field string
}

func (e *ForbiddenFieldError) Error() string {
    return fmt.Sprintf("role %s may not write field %q", e.Role, e.Field)
}

// row holds the access level per role for one field.
type row struct {
    landlord   Access
    tenant     Access
    contractor Access
}

// The table below is state-independent; the two state-conditioned rules
// (rating writable only once completed, content fields writable only at
// creation) are applied in Level.  Content fields are ReadOnly here
// because the creation path never consults the write gate.
var table = map[string]row{
    "title":           {landlord: ReadOnly, tenant: ReadOnly, contractor: ReadOnly},
    "description":     {landlord: ReadOnly, tenant: ReadOnly, contractor: ReadOnly},
    "issue_type":      {landlord: ReadOnly, tenant: ReadOnly, contractor: ReadOnly},
    "priority":        {landlord: ReadOnly, tenant: ReadOnly, contractor: ReadOnly},
    "images":          {landlord: ReadOnly, tenant: ReadOnly, contractor: ReadOnly},
    "contact_phone":   {landlord: ReadOnly, tenant: Writable, contractor: ReadOnly},
    "preferred_times": {landlord: ReadOnly, tenant: Writable, contractor: ReadOnly},

    "status":      {landlord: Writable, tenant: ReadOnly, contractor: ReadOnly},
    "assigned_to": {landlord: Writable, tenant: ReadOnly, contractor: ReadOnly},

    "service_provider_status": {landlord: Writable, tenant: ReadOnly, contractor: Writable},
    "service_provider_notes":  {landlord: Writable, tenant: ReadOnly, contractor: Writable},
    "service_provider_fee":    {landlord: Writable, tenant: ReadOnly, contractor: Writable},

    "scheduled_date": {landlord: Writable, tenant: ReadOnly, contractor: Writable},

    "cost_estimate":        {landlord: Writable, tenant: ReadOnly, contractor: ReadOnly},
    "cost_estimate_status": {landlord: Writable, tenant: ReadOnly, contractor: ReadOnly},
    "cost_estimate_notes":  {landlord: Writable, tenant: ReadOnly, contractor: ReadOnly},
    "approval_status":      {landlord: Writable, tenant: ReadOnly, contractor: ReadOnly},
    "approval_notes":       {landlord: Writable, tenant: ReadOnly, contractor: Hidden},
    "payment_amount":       {landlord: Writable, tenant: ReadOnly, contractor: Hidden},
    "payment_status":       {landlord: Writable, tenant: ReadOnly, contractor: Hidden},

    "completion_report": {landlord: Writable, tenant: ReadOnly, contractor: Writable},
    "completion_date":   {landlord: ReadOnly, tenant: ReadOnly, contractor: ReadOnly},

    "rating":         {landlord: ReadOnly, tenant: ReadOnly, contractor: ReadOnly},
    "rating_comment": {landlord: ReadOnly, tenant: ReadOnly, contractor: ReadOnly},

    "read_by_landlord": {landlord: ReadOnly, tenant: Hidden, contractor: Hidden},
    "read_by_tenant":   {landlord: Hidden, tenant: ReadOnly, contractor: Hidden},
}

// Level returns the access the role holds over field given the request's
// current state.  Unknown fields and unknown roles are Hidden.
func Level(role, field string, r *model.MaintenanceRequest) Access {
    // Ratings open up for the tenant once the work is verified complete.
    if (field == "rating" || field == "rating_comment") &&
        role == model.RoleTenant && r != nil && r.Status == model.StatusCompleted {
        return Writable
    }
    rw, ok := table[field]
    if !ok {
        return Hidden
    }
    switch role {
    case model.RoleLandlord:
        return rw.landlord
    case model.RoleTenant:
        return rw.tenant
    case model.RoleContractor:
        return rw.contractor
    }
    return Hidden
}

// CheckWrite is the write gate: it returns a *ForbiddenFieldError unless
// the role holds Writable access over the field in the request's current
// state.
func CheckWrite(role, field string, r *model.MaintenanceRequest) error {
    if Level(role, field, r) != Writable {
        return &ForbiddenFieldError{Role: role, Field: field}
    }
    return nil
}

// Filter removes hidden fields from a rendered request view.  The input
// map is not modified.
func Filter(role string, r *model.MaintenanceRequest, view map[string]any) map[string]any {
    out := make(map[string]any, len(view))
    for k, v := range view {
        if _, known := table[k]; known && Level(role, k, r) == Hidden {
            continue
        }
        out[k] = v
    }
    return out
}
