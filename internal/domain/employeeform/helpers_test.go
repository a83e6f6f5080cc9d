package employeeform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hrconsole/internal/domain/attachments"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/refdata"
	"hrconsole/internal/hrapi"
	"hrconsole/internal/platform/cache"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

type fakeSource struct {
	mu    sync.Mutex
	lists map[refdata.Kind][]refdata.Item
	next  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{lists: map[refdata.Kind][]refdata.Item{
		refdata.KindDepartment:     {{ID: "1", Name: "Engineering"}, {ID: "2", Name: "Finance"}},
		refdata.KindDesignation:    {{ID: "10", Name: "Engineer", ParentID: "1"}, {ID: "20", Name: "Accountant", ParentID: "2"}},
		refdata.KindEmploymentType: {{ID: "ft", Name: "Full time"}},
		refdata.KindRole:           {{ID: "r1", Name: "Staff"}},
		refdata.KindCountry:        {{ID: "IN", Name: "India"}, {ID: "US", Name: "United States"}},
		refdata.KindState:          {{ID: "KA", Name: "Karnataka", ParentID: "IN"}, {ID: "CA", Name: "California", ParentID: "US"}},
		refdata.KindCity:           {{ID: "BLR", Name: "Bangalore", ParentID: "KA"}},
		refdata.KindManager:        {{ID: "m1", Name: "Grace Hopper"}},
	}, next: 100}
}

func (s *fakeSource) ListReferences(_ context.Context, kind refdata.Kind, parentID string) ([]refdata.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []refdata.Item
	for _, item := range s.lists[kind] {
		if parentID == "" || item.ParentID == parentID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fakeSource) CreateReference(_ context.Context, kind refdata.Kind, input refdata.CreateInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("new-%d", s.next)
	s.lists[kind] = append(s.lists[kind], refdata.Item{ID: id, Name: input.Name, ParentID: input.ParentID})
	return id, nil
}

type fakeChecker struct {
	mu    sync.Mutex
	taken map[string]bool
	calls int
}

func (c *fakeChecker) CheckUnique(_ context.Context, _, value, _ string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.taken[value], nil
}

// savedRequest is a decoded multipart write.
type savedRequest struct {
	employeeID string
	form       *multipart.Form
}

func (r savedRequest) value(name string) string {
	if vs := r.form.Value[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (r savedRequest) documents(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.value("documents")), &out))
	return out
}

type fakeGateway struct {
	mu      sync.Mutex
	record  *hrapi.EmployeeRecord
	result  hrapi.WriteResult
	err     error
	gate    chan struct{}
	started chan struct{}
	saves   []savedRequest
}

func (g *fakeGateway) GetEmployee(_ context.Context, employeeID string) (*hrapi.EmployeeRecord, error) {
	if g.record == nil {
		return nil, &hrapi.APIError{Status: 404, Message: "not found"}
	}
	return g.record, nil
}

func (g *fakeGateway) SaveEmployee(ctx context.Context, employeeID string, payload hrapi.MultipartPayload) (hrapi.WriteResult, error) {
	if g.started != nil {
		close(g.started)
	}
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return hrapi.WriteResult{}, ctx.Err()
		}
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := payload.Encode(w); err != nil {
		return hrapi.WriteResult{}, err
	}
	if err := w.Close(); err != nil {
		return hrapi.WriteResult{}, err
	}
	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		return hrapi.WriteResult{}, err
	}

	g.mu.Lock()
	g.saves = append(g.saves, savedRequest{employeeID: employeeID, form: form})
	g.mu.Unlock()
	return g.result, g.err
}

func (g *fakeGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.saves)
}

type harness struct {
	source  *fakeSource
	checker *fakeChecker
	gateway *fakeGateway
	deps    Deps
	session auth.Session
}

func newHarness() *harness {
	h := &harness{
		source:  newFakeSource(),
		checker: &fakeChecker{taken: map[string]bool{}},
		gateway: &fakeGateway{result: hrapi.WriteResult{Success: true, ID: "501"}},
		session: auth.Session{UserID: "u-1", TenantID: "t-1", RoleName: auth.RoleHR, Token: "tok"},
	}
	h.deps = Deps{
		Refs:    refdata.NewResolver(h.source, cache.NewMemory(), time.Minute),
		Gateway: h.gateway,
		Checker: h.checker,
	}
	return h
}

func (h *harness) newForm(t *testing.T) *Form {
	t.Helper()
	f, err := New(context.Background(), h.deps, h.session)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

func ptr(s string) *string { return &s }

// fillRequired makes a create-mode draft pass every constraint.
func fillRequired(t *testing.T, f *Form) {
	t.Helper()
	for field, value := range map[string]string{
		"first_name":    "Ada",
		"last_name":     "Lovelace",
		"phone":         "555-010-0200",
		"employee_code": "EMP-100",
		"joining_date":  "2024-01-15",
	} {
		_, err := f.SetField(field, value)
		require.NoError(t, err)
	}
	require.NoError(t, f.SelectDepartment(context.Background(), "1"))
	doc := f.View().Documents[0].Key
	require.NoError(t, f.UpdateDocument(doc, DocumentPatch{DocumentType: ptr("passport")}))
}

func stage(t *testing.T, f *Form, name string, data []byte) attachments.File {
	t.Helper()
	file, err := f.StageFile(name, bytes.NewReader(data))
	require.NoError(t, err)
	return file
}
