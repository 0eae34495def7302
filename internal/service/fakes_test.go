package service

import (
    "context"
    "errors"
    "fmt"
    "io"
    "strings"
    "sync"
    "time"

    "github.com/Ioioiog/dashboardly/internal/model"
    "github.com/Ioioiog/dashboardly/internal/repository"
)

// The fakes below implement the store interfaces in memory with the
// same observable behavior as the SQL repositories: reads return
// copies, updates are column-keyed, missing rows are ErrNotFound.

type fakeDirectory struct {
    owners  map[uint64]uint64 // property id -> owner id
    tenants map[uint64]uint64 // tenant id -> property id
    users   map[uint64]model.UserInfo
}

func newFakeDirectory() *fakeDirectory {
    return &fakeDirectory{
        owners:  make(map[uint64]uint64),
        tenants: make(map[uint64]uint64),
        users:   make(map[uint64]model.UserInfo),
    }
}

func (d *fakeDirectory) PropertyOwner(_ context.Context, propertyID uint64) (uint64, error) {
    owner, ok := d.owners[propertyID]
    if !ok {
        return 0, repository.ErrNotFound
    }
    return owner, nil
}

func (d *fakeDirectory) TenantProperty(_ context.Context, tenantID uint64) (uint64, error) {
    pid, ok := d.tenants[tenantID]
    if !ok {
        return 0, repository.ErrNotFound
    }
    return pid, nil
}

func (d *fakeDirectory) User(_ context.Context, id uint64) (*model.UserInfo, error) {
    u, ok := d.users[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    return &u, nil
}

type fakeRequestStore struct {
    mu   sync.Mutex
    seq  uint64
    rows map[uint64]*model.MaintenanceRequest
    dir  *fakeDirectory
    now  time.Time
}

func newFakeRequestStore(dir *fakeDirectory) *fakeRequestStore {
    return &fakeRequestStore{
        rows: make(map[uint64]*model.MaintenanceRequest),
        dir:  dir,
        now:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
    }
}

func (s *fakeRequestStore) Create(_ context.Context, req *model.MaintenanceRequest) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if len(req.Images) > 3 {
        return repository.ErrTooManyImages
    }
    s.seq++
    req.ID = s.seq
    req.Status = model.StatusPending
    req.CostEstimateStatus = model.ReviewPending
    req.ApprovalStatus = model.ReviewPending
    req.CreatedAt = s.now
    req.UpdatedAt = s.now
    s.rows[req.ID] = cloneRequest(req)
    return nil
}

func (s *fakeRequestStore) GetByID(_ context.Context, id uint64) (*model.MaintenanceRequest, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    row, ok := s.rows[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    return cloneRequest(row), nil
}

func (s *fakeRequestStore) ListForOwner(_ context.Context, ownerID uint64, status string) ([]*model.MaintenanceRequest, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []*model.MaintenanceRequest
    for _, row := range s.rows {
        if s.dir.owners[row.PropertyID] != ownerID {
            continue
        }
        if status != "" && row.Status != status {
            continue
        }
        out = append(out, cloneRequest(row))
    }
    return out, nil
}

func (s *fakeRequestStore) ListForTenant(_ context.Context, tenantID uint64, status string) ([]*model.MaintenanceRequest, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []*model.MaintenanceRequest
    for _, row := range s.rows {
        if row.TenantID != tenantID {
            continue
        }
        if status != "" && row.Status != status {
            continue
        }
        out = append(out, cloneRequest(row))
    }
    return out, nil
}

func (s *fakeRequestStore) ListForContractor(_ context.Context, contractorID uint64, status string) ([]*model.MaintenanceRequest, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []*model.MaintenanceRequest
    for _, row := range s.rows {
        if row.AssignedTo == nil || *row.AssignedTo != contractorID {
            continue
        }
        if status != "" && row.Status != status {
            continue
        }
        out = append(out, cloneRequest(row))
    }
    return out, nil
}

func (s *fakeRequestStore) Update(_ context.Context, id uint64, set map[string]any) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    row, ok := s.rows[id]
    if !ok {
        return repository.ErrNotFound
    }
    for col, val := range set {
        if err := applyColumn(row, col, val); err != nil {
            return err
        }
    }
    row.UpdatedAt = row.UpdatedAt.Add(time.Second)
    return nil
}

func applyColumn(row *model.MaintenanceRequest, col string, val any) error {
    switch col {
    case "contact_phone":
        row.ContactPhone = val.(string)
    case "preferred_times":
        row.PreferredTimes = val.([]string)
    case "status":
        row.Status = val.(string)
    case "assigned_to":
        if val == nil {
            row.AssignedTo = nil
        } else {
            v := toUint64(val)
            row.AssignedTo = &v
        }
    case "service_provider_status":
        row.ServiceProviderStatus = strPtrOrNil(val)
    case "service_provider_notes":
        row.ServiceProviderNotes = strPtrOrNil(val)
    case "service_provider_fee_cents":
        row.ServiceProviderFeeCents = int64PtrOrNil(val)
    case "scheduled_day":
        row.ScheduledDay = timePtrOrNil(val)
    case "scheduled_time":
        row.ScheduledTime = strPtrOrNil(val)
    case "scheduled_date":
        row.ScheduledDate = timePtrOrNil(val)
    case "cost_estimate_cents":
        row.CostEstimateCents = int64PtrOrNil(val)
    case "cost_estimate_status":
        row.CostEstimateStatus = val.(string)
    case "cost_estimate_notes":
        row.CostEstimateNotes = strPtrOrNil(val)
    case "approval_status":
        row.ApprovalStatus = val.(string)
    case "approval_notes":
        row.ApprovalNotes = strPtrOrNil(val)
    case "payment_amount_cents":
        row.PaymentAmountCents = int64PtrOrNil(val)
    case "payment_status":
        row.PaymentStatus = strPtrOrNil(val)
    case "completion_date":
        row.CompletionDate = timePtrOrNil(val)
    case "completion_report":
        row.CompletionReport = strPtrOrNil(val)
    case "rating":
        if val == nil {
            row.Rating = nil
        } else {
            v := val.(uint8)
            row.Rating = &v
        }
    case "rating_comment":
        row.RatingComment = strPtrOrNil(val)
    case "read_by_landlord":
        row.ReadByLandlord = val.(bool)
    case "read_by_tenant":
        row.ReadByTenant = val.(bool)
    default:
        return fmt.Errorf("fake store: unknown column %q", col)
    }
    return nil
}

func toUint64(val any) uint64 {
    switch v := val.(type) {
    case uint64:
        return v
    case int64:
        return uint64(v)
    }
    panic(fmt.Sprintf("fake store: unexpected id type %T", val))
}

func strPtrOrNil(val any) *string {
    if val == nil {
        return nil
    }
    s := val.(string)
    return &s
}

func int64PtrOrNil(val any) *int64 {
    if val == nil {
        return nil
    }
    n := val.(int64)
    return &n
}

func timePtrOrNil(val any) *time.Time {
    if val == nil {
        return nil
    }
    t := val.(time.Time)
    return &t
}

func cloneRequest(r *model.MaintenanceRequest) *model.MaintenanceRequest {
    c := *r
    c.Images = append([]string(nil), r.Images...)
    c.PreferredTimes = append([]string(nil), r.PreferredTimes...)
    c.AssignedTo = copyPtr(r.AssignedTo)
    c.ServiceProviderStatus = copyPtr(r.ServiceProviderStatus)
    c.ServiceProviderNotes = copyPtr(r.ServiceProviderNotes)
    c.ServiceProviderFeeCents = copyPtr(r.ServiceProviderFeeCents)
    c.ScheduledDay = copyPtr(r.ScheduledDay)
    c.ScheduledTime = copyPtr(r.ScheduledTime)
    c.ScheduledDate = copyPtr(r.ScheduledDate)
    c.CostEstimateCents = copyPtr(r.CostEstimateCents)
    c.CostEstimateNotes = copyPtr(r.CostEstimateNotes)
    c.ApprovalNotes = copyPtr(r.ApprovalNotes)
    c.PaymentAmountCents = copyPtr(r.PaymentAmountCents)
    c.PaymentStatus = copyPtr(r.PaymentStatus)
    c.CompletionDate = copyPtr(r.CompletionDate)
    c.CompletionReport = copyPtr(r.CompletionReport)
    c.Rating = copyPtr(r.Rating)
    c.RatingComment = copyPtr(r.RatingComment)
    return &c
}

func copyPtr[T any](p *T) *T {
    if p == nil {
        return nil
    }
    v := *p
    return &v
}

type fakeMessageStore struct {
    mu   sync.Mutex
    seq  uint64
    rows []model.ChatMessage
    dir  *fakeDirectory
    now  time.Time
}

func newFakeMessageStore(dir *fakeDirectory) *fakeMessageStore {
    return &fakeMessageStore{dir: dir, now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (s *fakeMessageStore) Insert(_ context.Context, m *model.ChatMessage) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.seq++
    s.now = s.now.Add(time.Second)
    m.ID = s.seq
    m.CreatedAt = s.now
    s.rows = append(s.rows, *m)
    return nil
}

func (s *fakeMessageStore) detail(m model.ChatMessage) model.ChatMessageDetail {
    sender := s.dir.users[m.SenderID]
    return model.ChatMessageDetail{
        ID:         m.ID,
        RequestID:  m.RequestID,
        SenderID:   m.SenderID,
        SenderName: sender.Name,
        SenderRole: sender.Role,
        Message:    m.Message,
        CreatedAt:  m.CreatedAt,
    }
}

func (s *fakeMessageStore) ListByRequest(_ context.Context, requestID uint64) ([]model.ChatMessageDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.ChatMessageDetail, 0)
    for _, m := range s.rows {
        if m.RequestID == requestID {
            out = append(out, s.detail(m))
        }
    }
    return out, nil
}

func (s *fakeMessageStore) GetDetail(_ context.Context, id uint64) (*model.ChatMessageDetail, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, m := range s.rows {
        if m.ID == id {
            d := s.detail(m)
            return &d, nil
        }
    }
    return nil, repository.ErrNotFound
}

type fakeDocumentStore struct {
    mu   sync.Mutex
    seq  uint64
    rows map[uint64]model.Document
}

func newFakeDocumentStore() *fakeDocumentStore {
    return &fakeDocumentStore{rows: make(map[uint64]model.Document)}
}

func (s *fakeDocumentStore) Insert(_ context.Context, d *model.Document) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.seq++
    d.ID = s.seq
    d.CreatedAt = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
    s.rows[d.ID] = *d
    return nil
}

func (s *fakeDocumentStore) GetByID(_ context.Context, id uint64) (*model.Document, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    d, ok := s.rows[id]
    if !ok {
        return nil, repository.ErrNotFound
    }
    return &d, nil
}

func (s *fakeDocumentStore) ListByRequest(_ context.Context, requestID uint64) ([]model.Document, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Document, 0)
    for _, d := range s.rows {
        if d.RequestID == requestID {
            out = append(out, d)
        }
    }
    return out, nil
}

func (s *fakeDocumentStore) Delete(_ context.Context, id uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.rows[id]; !ok {
        return repository.ErrNotFound
    }
    delete(s.rows, id)
    return nil
}

// fakeBlobStore records uploads in memory; Remove and SaveDocument can
// be forced to fail to exercise the two-step gap.
type fakeBlobStore struct {
    mu         sync.Mutex
    seq        int
    objects    map[string][]byte
    failRemove bool
}

func newFakeBlobStore() *fakeBlobStore {
    return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (s *fakeBlobStore) SaveImage(data []byte, ext string) (string, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.seq++
    object := fmt.Sprintf("maintenance-images/img-%d%s", s.seq, normalizeTestExt(ext))
    s.objects[object] = data
    return "http://blob.test/v1/files/" + object, nil
}

func (s *fakeBlobStore) SaveDocument(requestID uint64, data []byte, ext string) (string, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.seq++
    object := fmt.Sprintf("maintenance-documents/%d/doc-%d%s", requestID, s.seq, normalizeTestExt(ext))
    s.objects[object] = data
    return object, nil
}

func (s *fakeBlobStore) SignedURL(object string) (string, error) {
    return "http://blob.test/v1/files/" + object + "?exp=9999999999&sig=fake", nil
}

func (s *fakeBlobStore) Open(object string) (io.ReadCloser, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    data, ok := s.objects[object]
    if !ok {
        return nil, errors.New("blob not found")
    }
    return io.NopCloser(strings.NewReader(string(data))), nil
}

func (s *fakeBlobStore) Remove(object string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.failRemove {
        return errors.New("simulated storage failure")
    }
    delete(s.objects, object)
    return nil
}

func normalizeTestExt(ext string) string {
    if ext == "" {
        return ".bin"
    }
    if !strings.HasPrefix(ext, ".") {
        return "." + ext
    }
    return ext
}

// fakeNotificationStore computes counts directly off the request and
// message fakes, mirroring the SQL in NotificationRepo.
type fakeNotificationStore struct {
    requests *fakeRequestStore
    messages *fakeMessageStore
    markers  map[string]time.Time // "user:category"
}

func newFakeNotificationStore(requests *fakeRequestStore, messages *fakeMessageStore) *fakeNotificationStore {
    return &fakeNotificationStore{requests: requests, messages: messages, markers: make(map[string]time.Time)}
}

func (s *fakeNotificationStore) MaintenanceUnread(_ context.Context, userID uint64, role string) (int, error) {
    s.requests.mu.Lock()
    defer s.requests.mu.Unlock()
    n := 0
    for _, r := range s.requests.rows {
        if r.Status != model.StatusPending {
            continue
        }
        switch role {
        case model.RoleLandlord:
            if s.requests.dir.owners[r.PropertyID] == userID && !r.ReadByLandlord {
                n++
            }
        case model.RoleTenant:
            if r.TenantID == userID && !r.ReadByTenant {
                n++
            }
        }
    }
    return n, nil
}

func (s *fakeNotificationStore) MessagesUnread(_ context.Context, userID uint64, role string, since time.Time) (int, error) {
    s.messages.mu.Lock()
    defer s.messages.mu.Unlock()
    s.requests.mu.Lock()
    defer s.requests.mu.Unlock()
    n := 0
    for _, m := range s.messages.rows {
        if m.SenderID == userID || !m.CreatedAt.After(since) {
            continue
        }
        req, ok := s.requests.rows[m.RequestID]
        if !ok {
            continue
        }
        switch role {
        case model.RoleLandlord:
            if s.requests.dir.owners[req.PropertyID] == userID {
                n++
            }
        case model.RoleTenant:
            if req.TenantID == userID {
                n++
            }
        case model.RoleContractor:
            if req.AssignedTo != nil && *req.AssignedTo == userID {
                n++
            }
        }
    }
    return n, nil
}

func (s *fakeNotificationStore) PaymentsUnread(_ context.Context, userID uint64, role string, since time.Time) (int, error) {
    s.requests.mu.Lock()
    defer s.requests.mu.Unlock()
    n := 0
    for _, r := range s.requests.rows {
        if r.PaymentStatus == nil || *r.PaymentStatus != "pending" || !r.UpdatedAt.After(since) {
            continue
        }
        switch role {
        case model.RoleLandlord:
            if s.requests.dir.owners[r.PropertyID] == userID {
                n++
            }
        case model.RoleTenant:
            if r.TenantID == userID {
                n++
            }
        }
    }
    return n, nil
}

func (s *fakeNotificationStore) ReadMarker(_ context.Context, userID uint64, category string) (time.Time, error) {
    return s.markers[fmt.Sprintf("%d:%s", userID, category)], nil
}

func (s *fakeNotificationStore) SetReadMarker(_ context.Context, userID uint64, category string, at time.Time) error {
    s.markers[fmt.Sprintf("%d:%s", userID, category)] = at
    return nil
}

func (s *fakeNotificationStore) MarkMaintenanceRead(_ context.Context, userID uint64, role string) error {
    s.requests.mu.Lock()
    defer s.requests.mu.Unlock()
    for _, r := range s.requests.rows {
        switch role {
        case model.RoleLandlord:
            if s.requests.dir.owners[r.PropertyID] == userID {
                r.ReadByLandlord = true
            }
        case model.RoleTenant:
            if r.TenantID == userID {
                r.ReadByTenant = true
            }
        }
    }
    return nil
}
