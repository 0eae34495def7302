package authz

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/Ioioiog/dashboardly/internal/model"
)

func TestLevelRepresentativeRules(t *testing.T) {
    r := &model.MaintenanceRequest{Status: model.StatusInProgress}
    cases := []struct {
        role  string
        field string
        want  Access
    }{
        {model.RoleLandlord, "status", Writable},
        {model.RoleTenant, "status", ReadOnly},
        {model.RoleContractor, "status", ReadOnly},

        {model.RoleLandlord, "service_provider_fee", Writable},
        {model.RoleContractor, "service_provider_fee", Writable},
        {model.RoleTenant, "service_provider_fee", ReadOnly},
        {model.RoleContractor, "service_provider_notes", Writable},
        {model.RoleContractor, "service_provider_status", Writable},

        // Content fields are set at creation and read-only afterward
        // for everyone, including the tenant who wrote them.
        {model.RoleTenant, "title", ReadOnly},
        {model.RoleTenant, "description", ReadOnly},
        {model.RoleLandlord, "priority", ReadOnly},
        {model.RoleContractor, "images", ReadOnly},

        {model.RoleLandlord, "cost_estimate", Writable},
        {model.RoleTenant, "cost_estimate", ReadOnly},
        {model.RoleContractor, "cost_estimate", ReadOnly},
        {model.RoleLandlord, "approval_status", Writable},
        {model.RoleContractor, "approval_notes", Hidden},
        {model.RoleContractor, "payment_amount", Hidden},
        {model.RoleContractor, "payment_status", Hidden},

        {model.RoleLandlord, "assigned_to", Writable},
        {model.RoleTenant, "assigned_to", ReadOnly},

        {model.RoleTenant, "contact_phone", Writable},
        {model.RoleLandlord, "contact_phone", ReadOnly},

        {model.RoleTenant, "nonexistent_field", Hidden},
    }
    for _, tc := range cases {
        assert.Equal(t, tc.want, Level(tc.role, tc.field, r), "role=%s field=%s", tc.role, tc.field)
    }
}

func TestRatingOpensAfterCompletion(t *testing.T) {
    inProgress := &model.MaintenanceRequest{Status: model.StatusInProgress}
    completed := &model.MaintenanceRequest{Status: model.StatusCompleted}

    assert.Equal(t, ReadOnly, Level(model.RoleTenant, "rating", inProgress))
    assert.Equal(t, Writable, Level(model.RoleTenant, "rating", completed))
    assert.Equal(t, Writable, Level(model.RoleTenant, "rating_comment", completed))

    // Only the tenant rates, even on completed work.
    assert.Equal(t, ReadOnly, Level(model.RoleLandlord, "rating", completed))
    assert.Equal(t, ReadOnly, Level(model.RoleContractor, "rating", completed))
}

func TestCheckWriteNamesField(t *testing.T) {
    r := &model.MaintenanceRequest{Status: model.StatusInProgress}

    err := CheckWrite(model.RoleTenant, "cost_estimate", r)
    var ffe *ForbiddenFieldError
    require.ErrorAs(t, err, &ffe)
    assert.Equal(t, "cost_estimate", ffe.Field)
    assert.Equal(t, model.RoleTenant, ffe.Role)
    assert.Contains(t, ffe.Error(), "cost_estimate")

    // Hidden fields reject writes the same way.
    err = CheckWrite(model.RoleContractor, "payment_amount", r)
    require.ErrorAs(t, err, &ffe)
    assert.Equal(t, "payment_amount", ffe.Field)

    require.NoError(t, CheckWrite(model.RoleContractor, "service_provider_notes", r))
}

func TestFilterDropsHiddenFields(t *testing.T) {
    r := &model.MaintenanceRequest{Status: model.StatusInProgress}
    view := map[string]any{
        "id":               uint64(7),
        "title":            "leaking tap",
        "payment_amount":   1500,
        "approval_notes":   "ok to proceed",
        "read_by_landlord": true,
        "read_by_tenant":   false,
    }

    contractorView := Filter(model.RoleContractor, r, view)
    assert.NotContains(t, contractorView, "payment_amount")
    assert.NotContains(t, contractorView, "approval_notes")
    assert.NotContains(t, contractorView, "read_by_landlord")
    assert.Contains(t, contractorView, "title")
    // Fields outside the table (id, audit columns) pass through.
    assert.Contains(t, contractorView, "id")

    landlordView := Filter(model.RoleLandlord, r, view)
    assert.Contains(t, landlordView, "payment_amount")
    assert.Contains(t, landlordView, "read_by_landlord")
    assert.NotContains(t, landlordView, "read_by_tenant")
}
