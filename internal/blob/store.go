// Package blob stores request binaries under two namespaces:
//
//	maintenance-images/{uuid}.{ext}              public, referenced by full URL
//	maintenance-documents/{request_id}/{uuid}.{ext}  private, served only via
//	                                             short-lived signed URLs
//
// Storage and metadata writes are two separate steps with no transaction
// between them; a crash after the upload leaves an orphaned blob and a
// failed removal after a metadata delete leaves a dangling reference.
// Both are accepted and surfaced, never auto-repaired.
package blob

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/base64"
    "errors"
    "fmt"
    "io"
    "os"
    "path"
    "path/filepath"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
)

const (
    imagesNamespace    = "maintenance-images"
    documentsNamespace = "maintenance-documents"

    // SignedURLTTL bounds how long a generated document link stays
    // valid.  Links are generated on demand and never stored.
    SignedURLTTL = 60 * time.Second
)

// ErrNotFound is returned when an object path has no stored blob.
var ErrNotFound = errors.New("blob not found")

// ErrBadSignature rejects tampered or mis-signed document URLs.
var ErrBadSignature = errors.New("invalid signature")

// ErrExpired rejects signed URLs past their expiry.
var ErrExpired = errors.New("signed url expired")

// StorageError wraps a failed upload, removal or read so callers can
// surface the operation and object involved.
type StorageError struct {
    Op   string
    Path string
    Err  error
}

func (e *StorageError) Error() string {
    return fmt.Sprintf("blob %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store keeps blobs on a local root directory and signs document URLs
// with an HMAC secret.  PublicBaseURL prefixes both the durable image
// URLs and the generated signed links.
type Store struct {
    root          string
    publicBaseURL string
    secret        []byte
    now           func() time.Time
}

// New returns a Store rooted at dir.  baseURL must not end in a slash.
func New(dir, baseURL string, secret []byte) *Store {
    return &Store{
        root:          dir,
        publicBaseURL: strings.TrimRight(baseURL, "/"),
        secret:        secret,
        now:           time.Now,
    }
}

// SaveImage stores one image blob and returns its durable public URL.
func (s *Store) SaveImage(data []byte, ext string) (string, error) {
    object := path.Join(imagesNamespace, uuid.NewString()+normalizeExt(ext))
    if err := s.write(object, data); err != nil {
        return "", err
    }
    return s.publicBaseURL + "/v1/files/" + object, nil
}

// SaveDocument stores one private document blob and returns its object
// path.  The path is what metadata rows reference; it is not a URL.
func (s *Store) SaveDocument(requestID uint64, data []byte, ext string) (string, error) {
    object := path.Join(documentsNamespace, strconv.FormatUint(requestID, 10), uuid.NewString()+normalizeExt(ext))
    if err := s.write(object, data); err != nil {
        return "", err
    }
    return object, nil
}

// SignedURL generates a short-lived link for a private object.  The
// signature covers the object path and the expiry instant.
func (s *Store) SignedURL(object string) (string, error) {
    if !strings.HasPrefix(object, documentsNamespace+"/") {
        return "", &StorageError{Op: "sign", Path: object, Err: errors.New("not a document object")}
    }
    exp := s.now().Add(SignedURLTTL).Unix()
    sig := s.sign(object, exp)
    return fmt.Sprintf("%s/v1/files/%s?exp=%d&sig=%s", s.publicBaseURL, object, exp, sig), nil
}

// Verify checks a signed document request.  Image objects are public
// and verify unconditionally.
func (s *Store) Verify(object string, exp int64, sig string) error {
    if strings.HasPrefix(object, imagesNamespace+"/") {
        return nil
    }
    expected := s.sign(object, exp)
    if !hmac.Equal([]byte(expected), []byte(sig)) {
        return ErrBadSignature
    }
    if s.now().Unix() > exp {
        return ErrExpired
    }
    return nil
}

// Open returns the blob bytes for serving.
func (s *Store) Open(object string) (io.ReadCloser, error) {
    p, err := s.resolve(object)
    if err != nil {
        return nil, err
    }
    f, err := os.Open(p)
    if os.IsNotExist(err) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, &StorageError{Op: "open", Path: object, Err: err}
    }
    return f, nil
}

// Remove deletes a blob.  Missing blobs are reported as ErrNotFound so
// the caller can tell an already-dangling reference from a live one.
func (s *Store) Remove(object string) error {
    p, err := s.resolve(object)
    if err != nil {
        return err
    }
    err = os.Remove(p)
    if os.IsNotExist(err) {
        return ErrNotFound
    }
    if err != nil {
        return &StorageError{Op: "remove", Path: object, Err: err}
    }
    return nil
}

func (s *Store) write(object string, data []byte) error {
    p, err := s.resolve(object)
    if err != nil {
        return err
    }
    if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
        return &StorageError{Op: "write", Path: object, Err: err}
    }
    if err := os.WriteFile(p, data, 0o644); err != nil {
        return &StorageError{Op: "write", Path: object, Err: err}
    }
    return nil
}

// resolve maps an object path onto the root, rejecting traversal out of
// the two namespaces.
func (s *Store) resolve(object string) (string, error) {
    clean := path.Clean("/" + object)[1:]
    if clean != object ||
        (!strings.HasPrefix(clean, imagesNamespace+"/") && !strings.HasPrefix(clean, documentsNamespace+"/")) {
        return "", &StorageError{Op: "resolve", Path: object, Err: errors.New("object path outside storage namespaces")}
    }
    return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *Store) sign(object string, exp int64) string {
    mac := hmac.New(sha256.New, s.secret)
    fmt.Fprintf(mac, "%s\n%d", object, exp)
    return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func normalizeExt(ext string) string {
    ext = strings.ToLower(strings.TrimPrefix(ext, "."))
    if ext == "" {
        ext = "bin"
    }
    return "." + ext
}
