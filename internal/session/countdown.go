package session

import (
	"sync"
	"time"
)

// DefaultRest is the rest period between sets.
const DefaultRest = 60 * time.Second

// Countdown is a running rest timer. It fires onTick periodically and onDone
// once when the time runs out, unless cancelled first.
type Countdown struct {
	mu       sync.Mutex
	deadline time.Time
	now      func() time.Time

	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
	cancelled bool
}

// Remaining returns the time left, never negative.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return max(c.deadline.Sub(c.now()), 0)
}

// AddTime extends the countdown by d.
func (c *Countdown) AddTime(d time.Duration) {
	c.mu.Lock()
	c.deadline = c.deadline.Add(d)
	c.mu.Unlock()
}

// Cancel stops the countdown. onDone will not be called afterwards.
// Cancel is safe to call more than once and after the countdown finished.
func (c *Countdown) Cancel() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.cancelled = true
		c.mu.Unlock()
		close(c.stop)
	})
}

// Cancelled reports whether Cancel stopped the countdown.
func (c *Countdown) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// Done is closed when the countdown goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

func (c *Countdown) finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Countdown) run(tick time.Duration, onTick func(time.Duration), onDone func()) {
	defer close(c.done)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			select {
			case <-c.stop:
				return
			default:
			}
			rem := c.Remaining()
			if rem <= 0 {
				if onDone != nil {
					onDone()
				}
				return
			}
			if onTick != nil {
				onTick(rem)
			}
		}
	}
}

// Countdowns owns the rest timer. At most one countdown is active; starting
// a new one cancels the previous one first.
type Countdowns struct {
	mu     sync.Mutex
	active *Countdown
	tick   time.Duration
	now    func() time.Time
}

// NewCountdowns returns an owner whose countdowns tick every tick.
func NewCountdowns(tick time.Duration) *Countdowns {
	if tick <= 0 {
		tick = time.Second
	}
	return &Countdowns{tick: tick, now: time.Now}
}

// Start cancels any active countdown and starts a new one of duration d.
// Callbacks run on the countdown goroutine and may be nil.
func (o *Countdowns) Start(d time.Duration, onTick func(remaining time.Duration), onDone func()) *Countdown {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		o.active.Cancel()
	}
	c := &Countdown{
		deadline: o.now().Add(d),
		now:      o.now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	o.active = c
	go c.run(o.tick, onTick, onDone)
	return c
}

// Active returns the running countdown, or nil.
func (o *Countdowns) Active() *Countdown {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil || o.active.finished() {
		return nil
	}
	return o.active
}

// Cancel stops the active countdown. It reports whether one was running.
func (o *Countdowns) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return false
	}
	running := !o.active.finished()
	o.active.Cancel()
	o.active = nil
	return running
}
