package models

import "sync"

// Reporter receives fatal errors that escape the run loop.
type Reporter interface {
	Report(err error)
}

type ReporterFunc func(err error)

func (f ReporterFunc) Report(err error) { f(err) }

// Interposer builds a Reporter that wraps the previously installed one.
// Implementations should forward to prev, never swallow.
type Interposer func(prev Reporter) Reporter

// ReportChain is a stack of reporters scoped to one session.
type ReportChain struct {
	mu  sync.Mutex
	cur Reporter
}

func NewReportChain(base Reporter) *ReportChain {
	return &ReportChain{cur: base}
}

// Install pushes an interposer. The returned func restores the previous
// reporter and is safe to call more than once.
func (c *ReportChain) Install(ip Interposer) (uninstall func()) {
	c.mu.Lock()
	prev := c.cur
	c.cur = ip(prev)
	c.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.cur = prev
			c.mu.Unlock()
		})
	}
}

func (c *ReportChain) Report(err error) {
	c.mu.Lock()
	cur := c.cur
	c.mu.Unlock()
	if cur != nil {
		cur.Report(err)
	}
}
