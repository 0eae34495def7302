package model

// The directory types are read models over tables owned by the
// property/tenant CRUD surface.  The engine only ever reads them, to
// scope visibility and resolve chat sender identity.

// Property maps a property to its owning landlord.
type Property struct {
    ID      uint64 // properties.id
    OwnerID uint64 // properties.owner_id
}

// Tenancy links a tenant to the property they currently occupy.
type Tenancy struct {
    TenantID   uint64 // tenancies.tenant_id
    PropertyID uint64 // tenancies.property_id
}

// UserInfo is the slice of the users table the engine needs: display
// name and role for chat denormalization.
type UserInfo struct {
    ID   uint64 // users.id
    Name string // users.name
    Role string // users.role
}
