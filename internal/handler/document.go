package handler

import (
    "io"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/Ioioiog/dashboardly/internal/service"
)

// maxDocumentBytes caps one uploaded document.
const maxDocumentBytes = 20 << 20

// DocumentHandler serves private request documents.
type DocumentHandler struct {
    svc *service.RequestService
}

func NewDocumentHandler(svc *service.RequestService) *DocumentHandler {
    return &DocumentHandler{svc: svc}
}

// Attach handles POST /v1/requests/:id/documents (multipart, field
// "file").
func (h *DocumentHandler) Attach(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    fh, err := c.FormFile("file")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "file field required"})
    }
    if fh.Size > maxDocumentBytes {
        return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
    }
    f, err := fh.Open()
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable upload"})
    }
    defer f.Close()
    data, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes+1))
    if err != nil || len(data) > maxDocumentBytes {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable upload"})
    }

    doc, err := h.svc.AttachDocument(c.Request().Context(), actor, id, fh.Filename, data)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, doc)
}

// List handles GET /v1/requests/:id/documents.
func (h *DocumentHandler) List(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    docs, err := h.svc.Documents(c.Request().Context(), actor, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"documents": docs})
}

// URL handles GET /v1/requests/:id/documents/:docID/url.  Every call
// mints a fresh 60-second link.
func (h *DocumentHandler) URL(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    docID, err := pathID(c, "docID")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    url, err := h.svc.DocumentURL(c.Request().Context(), actor, id, docID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"url": url})
}

// Delete handles DELETE /v1/requests/:id/documents/:docID.
func (h *DocumentHandler) Delete(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    docID, err := pathID(c, "docID")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    if err := h.svc.RemoveDocument(c.Request().Context(), actor, id, docID); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
