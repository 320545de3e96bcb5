package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"cofre/internal/core"
	"cofre/internal/goals"
	"cofre/internal/report"
	"cofre/internal/storage"
)

type fakeTxStore struct {
	inserted   []core.Transaction
	deleted    []uuid.UUID
	exports    []string
	rangeCalls []report.Filter
	inRange    []core.Transaction
	known      []string
	deleteErr  error
}

func (f *fakeTxStore) InsertTransaction(_ context.Context, tx core.Transaction) error {
	f.inserted = append(f.inserted, tx)
	return nil
}

func (f *fakeTxStore) TransactionsInRange(_ context.Context, filter report.Filter) ([]core.Transaction, error) {
	f.rangeCalls = append(f.rangeCalls, filter)
	return f.inRange, nil
}

func (f *fakeTxStore) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTxStore) KnownCategories(_ context.Context, _ core.Direction) ([]string, error) {
	return f.known, nil
}

func (f *fakeTxStore) EnqueueExport(_ context.Context, recordType, recordID, operation string) error {
	f.exports = append(f.exports, recordType+":"+operation)
	return nil
}

type fakeReports struct {
	lastStart, lastEnd string
}

func (f *fakeReports) Categories(_ context.Context, start, end string) (report.CategoryReport, error) {
	f.lastStart, f.lastEnd = start, end
	return report.CategoryReport{TotalCents: 15000}, nil
}

func (f *fakeReports) Cashflow(_ context.Context, start, end string) (report.CashflowReport, error) {
	f.lastStart, f.lastEnd = start, end
	return report.CashflowReport{}, nil
}

type fakeGoals struct {
	views map[uuid.UUID]goals.View
}

func newFakeGoals() *fakeGoals {
	return &fakeGoals{views: make(map[uuid.UUID]goals.View)}
}

func (f *fakeGoals) Create(_ context.Context, name string, target core.Money, deadline string) (core.Goal, error) {
	g := core.Goal{ID: uuid.New(), Name: name, Target: target, Deadline: deadline}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	f.views[g.ID] = goals.View{Goal: g}
	return g, nil
}

func (f *fakeGoals) Get(_ context.Context, id uuid.UUID) (goals.View, error) {
	v, ok := f.views[id]
	if !ok {
		return goals.View{}, storage.ErrNotFound
	}
	return v, nil
}

func (f *fakeGoals) List(_ context.Context) ([]goals.View, error) {
	var out []goals.View
	for _, v := range f.views {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeGoals) Contribute(_ context.Context, id uuid.UUID, amount core.Money, _ string) (core.Goal, error) {
	v, ok := f.views[id]
	if !ok {
		return core.Goal{}, storage.ErrNotFound
	}
	if amount.Cents <= 0 {
		return core.Goal{}, core.ErrInvalidAmount
	}
	v.Goal.Current.Cents += amount.Cents
	f.views[id] = v
	return v.Goal, nil
}

func (f *fakeGoals) Withdraw(_ context.Context, id uuid.UUID, amount core.Money, _ string) (core.Goal, error) {
	v, ok := f.views[id]
	if !ok {
		return core.Goal{}, storage.ErrNotFound
	}
	v.Goal.Current.Cents -= amount.Cents
	f.views[id] = v
	return v.Goal, nil
}

func (f *fakeGoals) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.views[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.views, id)
	return nil
}

type fakePublisher struct {
	events []string
}

func (p *fakePublisher) PublishRecordChange(_ context.Context, recordType, _ string, operation string) error {
	p.events = append(p.events, recordType+":"+operation)
	return nil
}

type testServer struct {
	*Server
	store     *fakeTxStore
	reports   *fakeReports
	goals     *fakeGoals
	publisher *fakePublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := &fakeTxStore{known: []string{"Food", "Transport", "Other"}}
	reports := &fakeReports{}
	goalSvc := newFakeGoals()
	publisher := &fakePublisher{}

	s := NewServer(":0", store, reports, goalSvc, publisher)
	t.Cleanup(func() { s.limiter.stop() })

	return &testServer{Server: s, store: store, reports: reports, goals: goalSvc, publisher: publisher}
}

func (ts *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.RemoteAddr = "203.0.113.10:4000"
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body.Error.Code
}

func TestCreateTransaction(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/transactions", map[string]string{
		"occurred_at": "2024-03-15T10:00:00Z",
		"amount":      "42,50",
		"direction":   "outflow",
		"category":    "Food",
		"description": "Groceries",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	if len(ts.store.inserted) != 1 {
		t.Fatalf("inserted = %d transactions, want 1", len(ts.store.inserted))
	}
	if got := ts.store.inserted[0].Amount.Cents; got != 4250 {
		t.Errorf("amount = %d cents, want 4250", got)
	}
	if len(ts.store.exports) != 1 || ts.store.exports[0] != "transaction:append" {
		t.Errorf("exports = %v, want [transaction:append]", ts.store.exports)
	}
	if len(ts.publisher.events) != 1 || ts.publisher.events[0] != "transaction:append" {
		t.Errorf("events = %v, want [transaction:append]", ts.publisher.events)
	}

	var resp transactionJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AmountCents != 4250 || resp.Direction != "outflow" {
		t.Errorf("response = %+v", resp)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		body     map[string]string
		wantCode string
	}{
		{
			name:     "bad amount",
			body:     map[string]string{"occurred_at": "2024-03-15T10:00:00Z", "amount": "abc", "direction": "outflow", "description": "x"},
			wantCode: CodeValidation,
		},
		{
			name:     "bad direction",
			body:     map[string]string{"occurred_at": "2024-03-15T10:00:00Z", "amount": "1,00", "direction": "sideways", "description": "x"},
			wantCode: CodeValidation,
		},
		{
			name:     "bad timestamp",
			body:     map[string]string{"occurred_at": "soon", "amount": "1,00", "direction": "outflow", "description": "x"},
			wantCode: CodeValidation,
		},
		{
			name:     "empty description",
			body:     map[string]string{"occurred_at": "2024-03-15T10:00:00Z", "amount": "1,00", "direction": "outflow"},
			wantCode: CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/transactions", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422 (%s)", rec.Code, rec.Body.String())
			}
			if code := decodeError(t, rec); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}

	if len(ts.store.inserted) != 0 {
		t.Errorf("no transactions should persist, got %d", len(ts.store.inserted))
	}
}

func TestListTransactionsRangeValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/transactions?start=2024-99-01&end=2024-03-31", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/transactions?start=2024-03-31&end=2024-03-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/transactions?start=2024-03-01&end=2024-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if len(ts.store.rangeCalls) != 1 {
		t.Fatalf("rangeCalls = %d, want 1", len(ts.store.rangeCalls))
	}
	if f := ts.store.rangeCalls[0]; f.Start != "2024-03-01" || f.End != "2024-03-31" || f.Direction != "" {
		t.Errorf("filter = %+v", f)
	}
}

func TestDeleteTransactionNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.store.deleteErr = storage.ErrNotFound

	rec := ts.do(t, http.MethodDelete, "/transactions/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := decodeError(t, rec); code != CodeNotFound {
		t.Errorf("error code = %q, want %q", code, CodeNotFound)
	}
}

func TestDeleteTransactionPublishes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, "/transactions/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(ts.store.exports) != 1 || ts.store.exports[0] != "transaction:delete" {
		t.Errorf("exports = %v, want [transaction:delete]", ts.store.exports)
	}
	if len(ts.publisher.events) != 1 || ts.publisher.events[0] != "transaction:delete" {
		t.Errorf("events = %v, want [transaction:delete]", ts.publisher.events)
	}
}

func TestCategoryReportEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/reports/categories?start=2024-03-01&end=2024-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if ts.reports.lastStart != "2024-03-01" || ts.reports.lastEnd != "2024-03-31" {
		t.Errorf("range passed = %q..%q", ts.reports.lastStart, ts.reports.lastEnd)
	}

	var rep report.CategoryReport
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.TotalCents != 15000 {
		t.Errorf("TotalCents = %d, want 15000", rep.TotalCents)
	}
}

func TestGoalLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/goals", map[string]string{
		"name":     "Trip",
		"target":   "500,00",
		"deadline": "31/12/2026",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", rec.Code, rec.Body.String())
	}
	var created goalJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created goal: %v", err)
	}
	if created.TargetCents != 50000 {
		t.Errorf("TargetCents = %d, want 50000", created.TargetCents)
	}

	rec = ts.do(t, http.MethodPost, "/goals/"+created.ID+"/contribute", map[string]string{"amount": "100,00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("contribute status = %d (%s)", rec.Code, rec.Body.String())
	}
	var after goalJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode goal: %v", err)
	}
	if after.CurrentCents != 10000 {
		t.Errorf("CurrentCents = %d, want 10000", after.CurrentCents)
	}

	rec = ts.do(t, http.MethodDelete, "/goals/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/goals/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestGoalValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/goals", map[string]string{"name": "Trip", "target": "0"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("zero target status = %d, want 422", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/goals", map[string]string{"name": "", "target": "10,00"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty name status = %d, want 422", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/goals/"+uuid.NewString()+"/contribute", map[string]string{"amount": "10,00"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("contribute to missing goal status = %d, want 404", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/transactions?start=2024-03-01&end=2024-03-31", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimitOnMutatingMethods(t *testing.T) {
	ts := newTestServer(t)

	var lastCode int
	for i := 0; i < 70; i++ {
		rec := ts.do(t, http.MethodPost, "/goals", map[string]string{
			"name":   fmt.Sprintf("Goal %d", i),
			"target": "10,00",
		})
		lastCode = rec.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("status after 70 POSTs = %d, want 429", lastCode)
	}

	// Reads stay unaffected
	rec := ts.do(t, http.MethodGet, "/goals", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}
