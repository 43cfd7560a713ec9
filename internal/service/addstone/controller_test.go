package addstone

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mamadbah2/stones/internal/config"
	"github.com/mamadbah2/stones/internal/domain/models"
	"github.com/mamadbah2/stones/pkg/clients/stones"
)

type fakeCreator struct {
	mu      sync.Mutex
	records []models.StoneRecord
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakeCreator) AddStone(ctx context.Context, record models.StoneRecord) (*models.Stone, error) {
	f.mu.Lock()
	f.records = append(f.records, record)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Stone{ID: "stone-1", StoneRecord: record}, nil
}

func (f *fakeCreator) calls() []models.StoneRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.StoneRecord(nil), f.records...)
}

type navRecorder struct {
	mu     sync.Mutex
	routes []string
	ch     chan string
}

func newNavRecorder() *navRecorder {
	return &navRecorder{ch: make(chan string, 8)}
}

func (n *navRecorder) Navigate(route string) {
	n.mu.Lock()
	n.routes = append(n.routes, route)
	n.mu.Unlock()
	n.ch <- route
}

func (n *navRecorder) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.routes)
}

func fillForm(t *testing.T, c *Controller, fields map[string]string) {
	t.Helper()
	for name, value := range fields {
		if err := c.SetField(name, value); err != nil {
			t.Fatalf("SetField(%s): %v", name, err)
		}
	}
}

var scenarioInput = map[string]string{
	models.FieldStoneName:       "Granite A",
	models.FieldBoughtFrom:      "Quarry X",
	models.FieldEstimatedFeet:   "100",
	models.FieldStoneCost:       "5000",
	models.FieldStoneTravelCost: "200",
}

func TestController_NewFormDefaults(t *testing.T) {
	now := time.Date(2026, 10, 19, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	c := NewController(&fakeCreator{}, nil, Options{Now: func() time.Time { return now }})

	view := c.View()
	if view.State != StateIdle || view.Submitting || view.Error != "" || view.Success != "" {
		t.Fatalf("unexpected initial view: %+v", view)
	}
	if view.Fields.Date != "2026-10-19" {
		t.Fatalf("expected UTC date of now, got %q", view.Fields.Date)
	}
	if view.SubmitLabel != "Save Stone" || view.Investment != "Investment: ₹0" {
		t.Fatalf("unexpected labels: %+v", view)
	}
}

func TestController_SetField_RejectsUnknownField(t *testing.T) {
	c := NewController(&fakeCreator{}, nil, Options{})

	if err := c.SetField("stoneType", "Granite"); !errors.Is(err, models.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := c.SetField(models.FieldStoneCost, "10"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if c.View().Investment != "Investment: ₹10" {
		t.Fatalf("investment not recomputed: %q", c.View().Investment)
	}
}

func TestController_Submit_SendsDerivedRecord(t *testing.T) {
	creator := &fakeCreator{}
	nav := newNavRecorder()
	c := NewController(creator, nav, Options{NavigateDelay: time.Hour})
	fillForm(t, c, scenarioInput)

	stone, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if stone == nil || stone.ID != "stone-1" {
		t.Fatalf("unexpected stone: %+v", stone)
	}

	calls := creator.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one backend call, got %d", len(calls))
	}
	got := calls[0]
	if got.StoneName != "Granite A" || got.Status != "Fresh Stone" || got.BoughtFrom != "Quarry X" {
		t.Fatalf("unexpected text fields: %+v", got)
	}
	if got.EstimatedFeet != 100 || got.StoneCost != 5000 || got.StoneTravelCost != 200 || got.TotalInvestment() != 5200 {
		t.Fatalf("unexpected numbers: %+v", got)
	}
	c.Close()
}

func TestController_Submit_BlankTravelCost(t *testing.T) {
	creator := &fakeCreator{}
	c := NewController(creator, nil, Options{NavigateDelay: time.Hour})
	defer c.Close()
	fillForm(t, c, scenarioInput)
	fillForm(t, c, map[string]string{models.FieldStoneTravelCost: ""})

	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := creator.calls()[0]
	if got.StoneTravelCost != 0 || got.TotalInvestment() != got.StoneCost {
		t.Fatalf("expected total to equal stone cost, got %+v", got)
	}
}

func TestController_Submit_RequiredFieldBlankMakesNoCall(t *testing.T) {
	creator := &fakeCreator{}
	c := NewController(creator, nil, Options{})
	fillForm(t, c, scenarioInput)
	fillForm(t, c, map[string]string{models.FieldBoughtFrom: "   "})

	_, err := c.Submit(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(creator.calls()) != 0 {
		t.Fatalf("backend must not be called")
	}
	if view := c.View(); view.State != StateIdle || view.Error != "" {
		t.Fatalf("validation must not change form state: %+v", view)
	}
}

func TestController_Submit_ServerErrorKeepsFields(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()

	client := stones.NewClient(config.BackendConfig{BaseURL: backend.URL}, nil)
	nav := newNavRecorder()
	c := NewController(client, nav, Options{NavigateDelay: time.Millisecond})
	fillForm(t, c, scenarioInput)
	before := c.View().Fields

	_, err := c.Submit(context.Background())
	if status, ok := stones.StatusCode(err); !ok || status != http.StatusInternalServerError {
		t.Fatalf("expected 500 error, got %v", err)
	}

	view := c.View()
	if view.State != StateError || view.Submitting {
		t.Fatalf("expected interactive error state, got %+v", view)
	}
	if !strings.Contains(view.Error, "500") {
		t.Fatalf("expected error message mentioning status, got %q", view.Error)
	}
	if view.Fields != before {
		t.Fatalf("fields changed: %+v -> %+v", before, view.Fields)
	}
	if view.Success != "" {
		t.Fatalf("unexpected success message %q", view.Success)
	}

	time.Sleep(20 * time.Millisecond)
	if nav.count() != 0 {
		t.Fatalf("failed submission must not navigate")
	}

	// The user can retry without re-entering data.
	fillForm(t, c, map[string]string{models.FieldStoneCost: "5100"})
	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatalf("expected the retry to reach the failing backend")
	}
}

func TestController_Submit_BackendUnreachable(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	url := backend.URL
	backend.Close()

	client := stones.NewClient(config.BackendConfig{BaseURL: url, Timeout: 5 * time.Second}, nil)
	c := NewController(client, nil, Options{})
	fillForm(t, c, scenarioInput)

	if _, err := c.Submit(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	view := c.View()
	if !strings.Contains(strings.ToLower(view.Error), "cannot connect to server") {
		t.Fatalf("expected connection message, got %q", view.Error)
	}
	if view.State != StateError || view.Submitting {
		t.Fatalf("expected interactive error state, got %+v", view)
	}
}

type silentError struct{}

func (silentError) Error() string { return "" }

func TestController_Submit_FallbackMessage(t *testing.T) {
	c := NewController(&fakeCreator{err: silentError{}}, nil, Options{})
	fillForm(t, c, scenarioInput)

	_, _ = c.Submit(context.Background())
	if got := c.View().Error; got != FallbackMessage {
		t.Fatalf("expected fallback message, got %q", got)
	}
}

func TestController_Submit_SuccessNavigatesOnceAfterDelay(t *testing.T) {
	nav := newNavRecorder()
	delay := 150 * time.Millisecond
	c := NewController(&fakeCreator{}, nav, Options{NavigateDelay: delay})
	fillForm(t, c, scenarioInput)

	start := time.Now()
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	view := c.View()
	if view.State != StateSuccess || view.Success != SuccessMessage {
		t.Fatalf("expected success view, got %+v", view)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}

	select {
	case route := <-nav.ch:
		if route != ListingRoute {
			t.Fatalf("unexpected route %q", route)
		}
		if elapsed := time.Since(start); elapsed < delay {
			t.Fatalf("navigated after %v, before the %v delay", elapsed, delay)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("navigation never happened")
	}

	time.Sleep(2 * delay)
	if nav.count() != 1 {
		t.Fatalf("expected exactly one navigation, got %d", nav.count())
	}
	if view := c.View(); view.State != StateLeft || view.NavigateTo != ListingRoute {
		t.Fatalf("expected left view, got %+v", view)
	}
	if err := c.SetField(models.FieldStoneName, "x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after leaving, got %v", err)
	}
}

func TestController_Submit_RejectsConcurrentSubmission(t *testing.T) {
	creator := &fakeCreator{release: make(chan struct{}), started: make(chan struct{}, 1)}
	c := NewController(creator, nil, Options{NavigateDelay: time.Hour})
	defer c.Close()
	fillForm(t, c, scenarioInput)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-creator.started

	view := c.View()
	if !view.Submitting || view.State != StateSubmitting || view.SubmitLabel != "Adding…" {
		t.Fatalf("expected submitting view, got %+v", view)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(creator.release)
	if err := <-done; err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(creator.calls()) != 1 {
		t.Fatalf("expected exactly one backend call, got %d", len(creator.calls()))
	}
}

func TestController_Reset(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	c := NewController(&fakeCreator{err: errors.New("boom")}, nil, Options{Now: func() time.Time { return now }})
	fillForm(t, c, scenarioInput)
	fillForm(t, c, map[string]string{models.FieldDate: "2026-01-01"})
	_, _ = c.Submit(context.Background())

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	view := c.View()
	if view.State != StateIdle || view.Error != "" || view.Success != "" || view.Submitting {
		t.Fatalf("expected clean idle view, got %+v", view)
	}
	if view.Fields != models.DefaultFields(now) {
		t.Fatalf("expected default fields, got %+v", view.Fields)
	}
}

func TestController_Reset_CancelsPendingNavigation(t *testing.T) {
	nav := newNavRecorder()
	c := NewController(&fakeCreator{}, nav, Options{NavigateDelay: 20 * time.Millisecond})
	fillForm(t, c, scenarioInput)

	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if nav.count() != 0 {
		t.Fatalf("reset must cancel the pending navigation")
	}
	if view := c.View(); view.State != StateIdle || view.Success != "" {
		t.Fatalf("expected idle view, got %+v", view)
	}
}

func TestController_Reset_DiscardsInFlightOutcome(t *testing.T) {
	creator := &fakeCreator{release: make(chan struct{}), started: make(chan struct{}, 1)}
	nav := newNavRecorder()
	c := NewController(creator, nav, Options{})
	fillForm(t, c, scenarioInput)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-creator.started

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	close(creator.release)
	<-done

	time.Sleep(20 * time.Millisecond)
	view := c.View()
	if view.State != StateIdle || view.Success != "" || nav.count() != 0 {
		t.Fatalf("superseded submission leaked into the form: %+v nav=%d", view, nav.count())
	}
}

func TestController_Cancel(t *testing.T) {
	creator := &fakeCreator{}
	nav := newNavRecorder()
	c := NewController(creator, nav, Options{})
	fillForm(t, c, scenarioInput)

	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if nav.count() != 1 || <-nav.ch != ListingRoute {
		t.Fatalf("expected immediate navigation to the listing")
	}
	if len(creator.calls()) != 0 {
		t.Fatalf("cancel must not submit")
	}

	view := c.View()
	if view.State != StateLeft || view.Fields.StoneName != "" {
		t.Fatalf("expected discarded edits, got %+v", view)
	}
	if err := c.Cancel(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on second cancel, got %v", err)
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on submit, got %v", err)
	}
}

func TestController_Close_DuringSubmission(t *testing.T) {
	creator := &fakeCreator{release: make(chan struct{}), started: make(chan struct{}, 1)}
	nav := newNavRecorder()
	c := NewController(creator, nav, Options{})
	fillForm(t, c, scenarioInput)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-creator.started

	c.Close()
	close(creator.release)
	<-done

	time.Sleep(20 * time.Millisecond)
	view := c.View()
	if view.State != StateLeft || view.Success != "" || nav.count() != 0 {
		t.Fatalf("closed form must not act on late results: %+v nav=%d", view, nav.count())
	}
	c.Close()
}
