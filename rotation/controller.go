package rotation

import (
	"sync"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/models"
	"github.com/KajanthanDigitWeb/summery-Dash/utils"
)

const (
	DefaultInterval = 5 * time.Second
	modesPerAccount = 3
)

// State is one (account, mode) selection. Index = AccountIndex*3 + ModeIndex.
type State struct {
	Index        int                `json:"index"`
	AccountIndex int                `json:"accountIndex"`
	ModeIndex    int                `json:"modeIndex"`
	Mode         models.Granularity `json:"mode"`
	AccountCount int                `json:"accountCount"`
	Rotating     bool               `json:"rotating"`
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type Option func(*Controller)

func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithTicker(f TickerFactory) Option {
	return func(c *Controller) {
		if f != nil {
			c.newTicker = f
		}
	}
}

// WithOnChange registers a callback run after every index change, outside the lock.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// Controller walks the account x mode grid. At most one timer goroutine runs at a time;
// starting one always retires the previous one first.
type Controller struct {
	mu           sync.Mutex
	index        int
	accountCount int
	rotating     bool
	closed       bool

	interval  time.Duration
	newTicker TickerFactory
	onChange  func(State)

	stop chan struct{}
	done chan struct{}
}

func New(accountCount int, opts ...Option) *Controller {
	c := &Controller{
		interval:  DefaultInterval,
		newTicker: newTimeTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	if accountCount > 0 {
		c.accountCount = accountCount
	}
	return c
}

func (c *Controller) total() int {
	return c.accountCount * modesPerAccount
}

func (c *Controller) stateLocked() State {
	modeIndex := c.index % modesPerAccount
	return State{
		Index:        c.index,
		AccountIndex: c.index / modesPerAccount,
		ModeIndex:    modeIndex,
		Mode:         models.GranularityAt(modeIndex),
		AccountCount: c.accountCount,
		Rotating:     c.rotating,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

// update applies fn under the lock and notifies when the index moved.
func (c *Controller) update(fn func() error) (State, error) {
	c.mu.Lock()
	before := c.index
	err := fn()
	s := c.stateLocked()
	c.mu.Unlock()
	if err == nil && s.Index != before {
		c.notify(s)
	}
	return s, err
}

// Advance moves forward one step and wraps to 0 after the last index.
func (c *Controller) Advance() State {
	s, _ := c.update(func() error {
		if total := c.total(); total > 0 {
			c.index = (c.index + 1) % total
		}
		return nil
	})
	return s
}

// Next moves forward and stops at the last index.
func (c *Controller) Next() State {
	s, _ := c.update(func() error {
		if total := c.total(); total > 0 {
			c.index = min(c.index+1, total-1)
		}
		return nil
	})
	return s
}

// Prev moves back and stops at 0.
func (c *Controller) Prev() State {
	s, _ := c.update(func() error {
		c.index = max(c.index-1, 0)
		return nil
	})
	return s
}

// SelectAccount keeps the current mode.
func (c *Controller) SelectAccount(accountIndex int) (State, error) {
	return c.update(func() error {
		if accountIndex < 0 || accountIndex >= c.accountCount {
			return utils.ErrAccountOutOfRange
		}
		c.index = accountIndex*modesPerAccount + c.index%modesPerAccount
		return nil
	})
}

// SelectMode keeps the current account.
func (c *Controller) SelectMode(g models.Granularity) (State, error) {
	return c.update(func() error {
		modeIndex := models.GranularityIndex(g)
		if modeIndex < 0 {
			return utils.ErrUnknownMode
		}
		if c.accountCount == 0 {
			return nil
		}
		c.index = (c.index/modesPerAccount)*modesPerAccount + modeIndex
		return nil
	})
}

// SetAccountCount re-clamps the index into [0, n*3).
func (c *Controller) SetAccountCount(n int) State {
	s, _ := c.update(func() error {
		c.accountCount = max(n, 0)
		if total := c.total(); total == 0 {
			c.index = 0
		} else if c.index >= total {
			c.index = total - 1
		}
		return nil
	})
	return s
}

// SetAutoRotate starts or stops the timer. Repeating the current setting is a no-op.
func (c *Controller) SetAutoRotate(on bool) State {
	c.mu.Lock()
	if c.closed || c.rotating == on {
		s := c.stateLocked()
		c.mu.Unlock()
		return s
	}
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.rotating = on
	c.mu.Unlock()

	// Retire any previous timer before a new one can exist.
	retire(stop, done)

	c.mu.Lock()
	if on && c.rotating && c.stop == nil && !c.closed {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.run(c.newTicker(c.interval), c.stop, c.done)
	}
	s := c.stateLocked()
	c.mu.Unlock()
	return s
}

func (c *Controller) Rotating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotating
}

// Close stops the timer and waits for it to exit. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.rotating = false
	c.closed = true
	c.mu.Unlock()
	retire(stop, done)
}

func retire(stop, done chan struct{}) {
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (c *Controller) run(t Ticker, stop chan struct{}, done chan struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			c.tick(stop)
		}
	}
}

// tick advances only if stop still belongs to the active timer.
func (c *Controller) tick(stop chan struct{}) {
	c.update(func() error {
		if c.stop != stop {
			return nil
		}
		if total := c.total(); total > 0 {
			c.index = (c.index + 1) % total
		}
		return nil
	})
}
