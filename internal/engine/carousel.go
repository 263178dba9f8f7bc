package engine

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Direction is the direction of travel of a carousel transition.
type Direction int

const (
	// DirectionForward advances toward the next position.
	DirectionForward Direction = iota

	// DirectionBackward goes back toward the previous position.
	DirectionBackward
)

// CarouselConfig holds timing configuration for the slideshow.
type CarouselConfig struct {
	// AutoCycleInterval is how long the carousel idles before advancing
	// automatically (default: 10s).
	AutoCycleInterval time.Duration

	// TransitionDuration is the slide animation time, during which the
	// outgoing and incoming items render simultaneously (default: 600ms).
	TransitionDuration time.Duration

	// SettleDelay is the short pause after a transition before the
	// carousel returns to idle (default: 50ms).
	SettleDelay time.Duration

	// ManualNavCooldown suppresses auto-cycling after a manual navigation
	// completes (default: 5s).
	ManualNavCooldown time.Duration
}

// DefaultCarouselConfig returns the standard slideshow timings.
func DefaultCarouselConfig() CarouselConfig {
	return CarouselConfig{
		AutoCycleInterval:  10 * time.Second,
		TransitionDuration: 600 * time.Millisecond,
		SettleDelay:        50 * time.Millisecond,
		ManualNavCooldown:  5 * time.Second,
	}
}

// Validate checks if the config is valid.
func (c *CarouselConfig) Validate() error {
	if c.AutoCycleInterval <= 0 {
		return fmt.Errorf("AutoCycleInterval must be > 0, got %v", c.AutoCycleInterval)
	}
	if c.TransitionDuration <= 0 {
		return fmt.Errorf("TransitionDuration must be > 0, got %v", c.TransitionDuration)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("SettleDelay must be >= 0, got %v", c.SettleDelay)
	}
	if c.ManualNavCooldown < 0 {
		return fmt.Errorf("ManualNavCooldown must be >= 0, got %v", c.ManualNavCooldown)
	}
	return nil
}

// CarouselState is a consistent snapshot of the controller for rendering.
type CarouselState struct {
	Position      int       `json:"position"`
	Total         int       `json:"total"`
	Transitioning bool      `json:"transitioning"`
	Direction     Direction `json:"direction"`
	DetailsOpen   bool      `json:"details_open"`
	Paused        bool      `json:"paused"`
}

// CarouselController owns the currently displayed shuffled position,
// automatic advancement, manual navigation, and the transient states that
// block or defer auto-advance.
//
// All waits are plain timers; continuations re-check state after waking.
// The auto-cycle loop validates cycleVersion immediately after its wait: a
// bump during the wait (manual navigation, details closing) discards the
// tick without advancing.
type CarouselController struct {
	mu  sync.Mutex
	cfg CarouselConfig

	// count reports the number of items in the shuffled order.
	count func() int

	position      int
	transitioning bool
	direction     Direction
	detailsOpen   bool
	paused        bool

	// suppressedUntil defers auto-cycling after a manual navigation even
	// though paused stays false.
	suppressedUntil time.Time

	cycleVersion uint64

	// onChange is invoked outside the lock after every visible change.
	onChange func()
}

// NewCarouselController creates a controller over a shuffled order of
// count() items. count is typically AppState.MnemonCount.
func NewCarouselController(cfg CarouselConfig, count func() int) (*CarouselController, error) {
	if count == nil {
		return nil, fmt.Errorf("count function is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &CarouselController{cfg: cfg, count: count}, nil
}

// OnChange registers a callback invoked after every visible state change.
// Must be set before the controller is shared across goroutines.
func (c *CarouselController) OnChange(fn func()) {
	c.onChange = fn
}

func (c *CarouselController) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

// State returns a consistent snapshot for rendering.
func (c *CarouselController) State() CarouselState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CarouselState{
		Position:      c.position,
		Total:         c.count(),
		Transitioning: c.transitioning,
		Direction:     c.direction,
		DetailsOpen:   c.detailsOpen,
		Paused:        c.paused,
	}
}

// Run drives the automatic slideshow until ctx is cancelled. Each loop
// iteration captures the cycle version, waits one interval, and only then
// decides whether the tick is still valid.
func (c *CarouselController) Run(ctx context.Context) {
	for {
		c.mu.Lock()
		version := c.cycleVersion
		c.mu.Unlock()

		timer := time.NewTimer(c.cfg.AutoCycleInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		c.autoTick(version)
	}
}

// autoTick attempts one automatic forward advance. It is skipped when the
// cycle version moved during the wait, when details are open, when paused,
// while a transition is running, within the manual-nav cooldown, or when
// there is nothing to show.
func (c *CarouselController) autoTick(version uint64) {
	c.mu.Lock()
	if version != c.cycleVersion ||
		c.detailsOpen || c.paused || c.transitioning ||
		time.Now().Before(c.suppressedUntil) {
		c.mu.Unlock()
		return
	}
	total := c.count()
	if total == 0 {
		c.mu.Unlock()
		return
	}
	target := (c.position + 1) % total
	c.beginTransitionLocked(DirectionForward, target, false)
	c.mu.Unlock()
	c.notify()
}

// NavigateNext advances one position with wraparound. Returns false when the
// navigation is rejected (transition already running, or nothing to show).
func (c *CarouselController) NavigateNext() bool {
	return c.navigate(DirectionForward)
}

// NavigatePrev goes back one position with wraparound. Returns false when
// the navigation is rejected.
func (c *CarouselController) NavigatePrev() bool {
	return c.navigate(DirectionBackward)
}

func (c *CarouselController) navigate(dir Direction) bool {
	c.mu.Lock()
	if c.transitioning {
		c.mu.Unlock()
		return false
	}
	total := c.count()
	if total == 0 {
		c.mu.Unlock()
		return false
	}

	var target int
	if dir == DirectionForward {
		target = (c.position + 1) % total
	} else {
		target = c.position - 1
		if target < 0 {
			target = total - 1
		}
	}

	// Invalidate the in-flight auto-cycle wait.
	c.cycleVersion++
	c.beginTransitionLocked(dir, target, true)
	c.mu.Unlock()
	c.notify()
	return true
}

// beginTransitionLocked starts the transition timers. Callers hold c.mu.
// After TransitionDuration the position commits; after SettleDelay the
// controller returns to idle and, for manual navigations, the auto-cycle
// suppression window starts.
func (c *CarouselController) beginTransitionLocked(dir Direction, target int, manual bool) {
	c.transitioning = true
	c.direction = dir

	time.AfterFunc(c.cfg.TransitionDuration, func() {
		c.mu.Lock()
		c.position = c.clampLocked(target)
		c.mu.Unlock()
		c.notify()

		time.AfterFunc(c.cfg.SettleDelay, func() {
			c.mu.Lock()
			c.transitioning = false
			if manual {
				c.suppressedUntil = time.Now().Add(c.cfg.ManualNavCooldown)
			}
			c.mu.Unlock()
			c.notify()
		})
	})
}

// clampLocked keeps a target valid when the collection shrank mid-transition.
func (c *CarouselController) clampLocked(target int) int {
	total := c.count()
	if total == 0 {
		return 0
	}
	if target >= total {
		return total - 1
	}
	if target < 0 {
		return 0
	}
	return target
}

// SetDetailsOpen toggles the details view. Closing details restarts the
// auto-cycle wait from zero so the user gets a full fresh interval, not the
// remainder of a partially elapsed one.
func (c *CarouselController) SetDetailsOpen(open bool) {
	c.mu.Lock()
	if c.detailsOpen && !open {
		c.cycleVersion++
	}
	c.detailsOpen = open
	c.mu.Unlock()
	c.notify()
}

// DetailsOpen reports whether the details view is open.
func (c *CarouselController) DetailsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detailsOpen
}

// SetPaused toggles the user's auto-cycle pause.
func (c *CarouselController) SetPaused(paused bool) {
	c.mu.Lock()
	c.paused = paused
	c.mu.Unlock()
	c.notify()
}

// Reclamp pulls the current position back into range after the collection
// shrank (a deletion while the carousel pointed at the last position).
func (c *CarouselController) Reclamp() {
	c.mu.Lock()
	c.position = c.clampLocked(c.position)
	c.mu.Unlock()
	c.notify()
}

// SetPosition jumps directly to a shuffled position without a transition,
// used when an add flow wants to show the entry that was just created.
func (c *CarouselController) SetPosition(position int) {
	c.mu.Lock()
	c.position = c.clampLocked(position)
	c.mu.Unlock()
	c.notify()
}

// HandleSwipe maps a completed gesture onto carousel actions: horizontal
// swipes navigate, vertical swipes open or close the details view.
func (c *CarouselController) HandleSwipe(swipe Swipe) {
	switch swipe {
	case SwipeLeft:
		c.NavigateNext()
	case SwipeRight:
		c.NavigatePrev()
	case SwipeUp:
		if !c.DetailsOpen() {
			c.SetDetailsOpen(true)
		}
	case SwipeDown:
		if c.DetailsOpen() {
			c.SetDetailsOpen(false)
		}
	}
}
