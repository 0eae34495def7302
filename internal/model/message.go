package model

import "time"

// ChatMessage is a single entry in a request's append-only message log.
// The sender's name and role are never stored on the row; they are
// resolved by join at read time (see repository.MessageRepo).
type ChatMessage struct {
    ID        uint64    // maintenance_messages.id
    RequestID uint64    // maintenance_messages.request_id
    SenderID  uint64    // maintenance_messages.sender_id
    Message   string    // maintenance_messages.message
    CreatedAt time.Time // maintenance_messages.created_at
}

// ChatMessageDetail is the denormalized form delivered to subscribers and
// returned by the list endpoint: the stored row plus the sender identity
// resolved at read time.
type ChatMessageDetail struct {
    ID         uint64    `json:"id"`
    RequestID  uint64    `json:"request_id"`
    SenderID   uint64    `json:"sender_id"`
    SenderName string    `json:"sender_name"`
    SenderRole string    `json:"sender_role"`
    Message    string    `json:"message"`
    CreatedAt  time.Time `json:"created_at"`
}

// Document is a private file attached to a request.  The blob lives under
// the maintenance-documents namespace and is only ever served through a
// short-lived signed URL, never as a durable public link.
type Document struct {
    ID         uint64    // maintenance_documents.id
    RequestID  uint64    // maintenance_documents.request_id
    ObjectPath string    // maintenance_documents.object_path (maintenance-documents/{request_id}/{uuid}.{ext})
    Filename   string    // maintenance_documents.filename (original name, display only)
    UploadedBy uint64    // maintenance_documents.uploaded_by
    CreatedAt  time.Time // maintenance_documents.created_at
}
