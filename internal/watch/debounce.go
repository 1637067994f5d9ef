package watch

import (
	"sync"
	"time"
)

// debouncer calls fire for a key once the key has gone quiet for delay.
// Each schedule supersedes the previous one, so a key fires at most once per
// quiet period even when an expiry races a reschedule.
type debouncer struct {
	delay time.Duration
	fire  func(key string)

	mu      sync.Mutex
	seq     uint64
	pending map[string]*pending
	stopped bool
}

type pending struct {
	timer *time.Timer
	gen   uint64
}

func newDebouncer(delay time.Duration, fire func(key string)) *debouncer {
	return &debouncer{delay: delay, fire: fire, pending: make(map[string]*pending)}
}

func (d *debouncer) schedule(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	p, ok := d.pending[key]
	if ok {
		p.timer.Stop()
	} else {
		p = &pending{}
		d.pending[key] = p
	}
	d.seq++
	gen := d.seq
	p.gen = gen
	p.timer = time.AfterFunc(d.delay, func() { d.expire(key, gen) })
}

// expire fires key if gen is still its latest schedule.
func (d *debouncer) expire(key string, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if d.stopped || !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()
	d.fire(key)
}

// stop cancels every pending key. Later schedules are ignored.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
}
