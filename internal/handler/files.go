package handler

import (
    "errors"
    "mime"
    "net/http"
    "path"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/Ioioiog/dashboardly/internal/blob"
)

// FilesHandler serves stored blobs.  Images are public; documents carry
// their credential in the URL, so no JWT runs on this route.
type FilesHandler struct {
    blobs *blob.Store
}

func NewFilesHandler(blobs *blob.Store) *FilesHandler {
    return &FilesHandler{blobs: blobs}
}

// Serve handles GET /v1/files/*.
func (h *FilesHandler) Serve(c echo.Context) error {
    object := c.Param("*")
    exp, _ := strconv.ParseInt(c.QueryParam("exp"), 10, 64)
    if err := h.blobs.Verify(object, exp, c.QueryParam("sig")); err != nil {
        if errors.Is(err, blob.ErrExpired) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "link expired"})
        }
        return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid link"})
    }

    rc, err := h.blobs.Open(object)
    if err != nil {
        return writeError(c, err)
    }
    defer rc.Close()

    ctype := mime.TypeByExtension(path.Ext(object))
    if ctype == "" {
        ctype = "application/octet-stream"
    }
    return c.Stream(http.StatusOK, ctype, rc)
}
