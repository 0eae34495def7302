package service

import (
    "context"
    "log"
    "path"

    "github.com/Ioioiog/dashboardly/internal/model"
)

// Document operations live on RequestService because a document only
// exists in the context of its request: scope checks reuse the request
// lookup, and blob object keys embed the request id.

// AttachDocument uploads the blob and then records its metadata.  The
// two steps share no transaction: if the insert fails the blob stays
// orphaned, and that is surfaced, not rolled back.
func (s *RequestService) AttachDocument(ctx context.Context, actor Actor, requestID uint64, filename string, data []byte) (*model.Document, error) {
    if _, err := s.Get(ctx, actor, requestID); err != nil {
        return nil, err
    }
    if len(data) == 0 {
        return nil, &ValidationError{Field: "file", Reason: "empty upload"}
    }
    object, err := s.blobs.SaveDocument(requestID, data, path.Ext(filename))
    if err != nil {
        return nil, err
    }
    doc := &model.Document{
        RequestID:  requestID,
        ObjectPath: object,
        Filename:   filename,
        UploadedBy: actor.ID,
    }
    if err := s.documents.Insert(ctx, doc); err != nil {
        log.Printf("document-service: metadata insert failed, blob %s orphaned: %v", object, err)
        return nil, err
    }
    return doc, nil
}

// Documents lists a request's documents after a scope check.
func (s *RequestService) Documents(ctx context.Context, actor Actor, requestID uint64) ([]model.Document, error) {
    if _, err := s.Get(ctx, actor, requestID); err != nil {
        return nil, err
    }
    return s.documents.ListByRequest(ctx, requestID)
}

// DocumentURL generates a fresh 60-second signed link.  Links are never
// stored; every view generates its own.
func (s *RequestService) DocumentURL(ctx context.Context, actor Actor, requestID, docID uint64) (string, error) {
    doc, err := s.document(ctx, actor, requestID, docID)
    if err != nil {
        return "", err
    }
    return s.blobs.SignedURL(doc.ObjectPath)
}

// RemoveDocument deletes the metadata row and then the blob.  A blob
// removal failure after the row is gone leaves the blob orphaned; the
// error is surfaced and the row stays deleted.
func (s *RequestService) RemoveDocument(ctx context.Context, actor Actor, requestID, docID uint64) error {
    doc, err := s.document(ctx, actor, requestID, docID)
    if err != nil {
        return err
    }
    if err := s.documents.Delete(ctx, doc.ID); err != nil {
        return err
    }
    if err := s.blobs.Remove(doc.ObjectPath); err != nil {
        log.Printf("document-service: blob removal failed after metadata delete, %s orphaned: %v", doc.ObjectPath, err)
        return err
    }
    return nil
}

func (s *RequestService) document(ctx context.Context, actor Actor, requestID, docID uint64) (*model.Document, error) {
    if _, err := s.Get(ctx, actor, requestID); err != nil {
        return nil, err
    }
    doc, err := s.documents.GetByID(ctx, docID)
    if err != nil {
        return nil, err
    }
    if doc.RequestID != requestID {
        return nil, ErrAccessDenied
    }
    return doc, nil
}
