// Package addstone drives the add-stone form: it owns the field values and the
// submit lifecycle, and hands the derived record to the stones backend.
package addstone

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/domain/models"
)

const (
	// ListingRoute is where the form navigates after a save or a cancel.
	ListingRoute = "/"
	// DefaultNavigateDelay is how long the success message stays before leaving.
	DefaultNavigateDelay = 900 * time.Millisecond

	SuccessMessage  = "Stone added successfully"
	FallbackMessage = "Failed to add stone. Please try again."
)

var (
	// ErrSubmitInFlight is returned while a previous submission has not completed.
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	// ErrAlreadySubmitted is returned after a successful save while the form is about to leave.
	ErrAlreadySubmitted = errors.New("stone already added")
	// ErrClosed is returned once the form has been left or torn down.
	ErrClosed = errors.New("form is closed")
)

// State is the lifecycle position of a form.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateError      State = "error"
	StateSuccess    State = "success"
	StateLeft       State = "left"
)

// StoneCreator is the slice of the stones client the form needs.
type StoneCreator interface {
	AddStone(ctx context.Context, record models.StoneRecord) (*models.Stone, error)
}

// Navigator receives the route the form wants to move to.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route string) { f(route) }

// Options tunes a Controller. A zero NavigateDelay navigates right after a successful save.
type Options struct {
	NavigateDelay time.Duration
	Logger        *zap.Logger
	Now           func() time.Time
}

// View is a point-in-time copy of the form for rendering.
type View struct {
	State       State             `json:"state"`
	Fields      models.FormFields `json:"fields"`
	Submitting  bool              `json:"submitting"`
	Error       string            `json:"error,omitempty"`
	Success     string            `json:"success,omitempty"`
	Investment  string            `json:"investment"`
	SubmitLabel string            `json:"submitLabel"`
	NavigateTo  string            `json:"navigateTo,omitempty"`
}

// Controller is the state of one add-stone form. It is safe for concurrent use;
// the backend call runs outside the lock so View stays available while submitting.
type Controller struct {
	creator StoneCreator
	nav     Navigator
	logger  *zap.Logger
	now     func() time.Time
	delay   time.Duration

	mu         sync.Mutex
	state      State
	fields     models.FormFields
	errMsg     string
	success    string
	navigateTo string
	timer      *time.Timer
	// generation changes whenever pending work must be ignored: reset, cancel, close, leave.
	generation uint64
}

// NewController opens a form with default field values.
func NewController(creator StoneCreator, nav Navigator, opts Options) *Controller {
	c := &Controller{
		creator: creator,
		nav:     nav,
		logger:  opts.Logger,
		now:     opts.Now,
		delay:   opts.NavigateDelay,
		state:   StateIdle,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.nav == nil {
		c.nav = NavigatorFunc(func(string) {})
	}
	c.fields = models.DefaultFields(c.now())
	return c
}

// SetField updates exactly one field. No validation happens here.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateLeft {
		return ErrClosed
	}
	return c.fields.Set(name, value)
}

// Submit validates the form, derives the stone record and sends it to the backend.
// Validation failures return *ValidationError without touching the backend or the state.
// Backend failures are kept as the form's error message and returned.
func (c *Controller) Submit(ctx context.Context) (*models.Stone, error) {
	c.mu.Lock()
	switch c.state {
	case StateLeft:
		c.mu.Unlock()
		return nil, ErrClosed
	case StateSubmitting:
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	case StateSuccess:
		c.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}

	if err := Validate(c.fields); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	record := BuildRecord(c.fields, c.now())
	c.state = StateSubmitting
	c.errMsg = ""
	gen := c.generation
	c.mu.Unlock()

	c.logger.Debug("submitting stone", zap.String("stone_name", record.StoneName), zap.Float64("total_investment", record.TotalInvestment()))
	stone, err := c.creator.AddStone(ctx, record)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Info("discarding outcome of superseded submission", zap.Error(err))
		return stone, err
	}

	if err != nil {
		c.state = StateError
		c.errMsg = err.Error()
		if c.errMsg == "" {
			c.errMsg = FallbackMessage
		}
		c.logger.Error("error adding stone", zap.Error(err))
		return nil, err
	}

	c.state = StateSuccess
	c.success = SuccessMessage
	c.timer = time.AfterFunc(c.delay, func() { c.leaveAfterSuccess(gen) })
	return stone, nil
}

// Reset discards edits and messages and returns to a fresh idle form.
// A pending navigation is cancelled and an in-flight outcome is ignored.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateLeft {
		return ErrClosed
	}

	c.invalidate()
	c.state = StateIdle
	c.fields = models.DefaultFields(c.now())
	c.errMsg = ""
	c.success = ""
	return nil
}

// Cancel leaves the form for the listing without submitting.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.state == StateLeft {
		c.mu.Unlock()
		return ErrClosed
	}

	c.invalidate()
	c.state = StateLeft
	c.fields = models.DefaultFields(c.now())
	c.errMsg = ""
	c.success = ""
	c.navigateTo = ListingRoute
	c.mu.Unlock()

	c.nav.Navigate(ListingRoute)
	return nil
}

// Close tears the form down. Pending navigation is dropped and any
// submission still in flight will not update the form. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.invalidate()
	c.state = StateLeft
}

// View returns a copy of the current form state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	label := "Save Stone"
	if c.state == StateSubmitting {
		label = "Adding…"
	}

	return View{
		State:       c.state,
		Fields:      c.fields,
		Submitting:  c.state == StateSubmitting,
		Error:       c.errMsg,
		Success:     c.success,
		Investment:  InvestmentDisplay(c.fields),
		SubmitLabel: label,
		NavigateTo:  c.navigateTo,
	}
}

func (c *Controller) leaveAfterSuccess(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateSuccess {
		c.mu.Unlock()
		return
	}
	c.invalidate()
	c.state = StateLeft
	c.navigateTo = ListingRoute
	c.mu.Unlock()

	c.nav.Navigate(ListingRoute)
}

// invalidate must be called with mu held.
func (c *Controller) invalidate() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
}
