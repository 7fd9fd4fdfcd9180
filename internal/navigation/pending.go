package navigation

import (
	"errors"
	"sync"
	"time"
)

var ErrNothingPending = errors.New("no pending navigation")

type Request struct {
	PageName    string    `json:"page_name"`
	CaseID      string    `json:"case_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// Pending holds the navigation request awaiting user confirmation. A new
// request replaces the previous one.
type Pending struct {
	mu      sync.Mutex
	current *Request
	now     func() time.Time
}

func NewPending() *Pending {
	return &Pending{now: time.Now}
}

func (p *Pending) Request(pageName, caseID string) Request {
	p.mu.Lock()
	defer p.mu.Unlock()

	req := Request{
		PageName:    pageName,
		CaseID:      caseID,
		RequestedAt: p.now().UTC(),
	}
	p.current = &req
	return req
}

func (p *Pending) Current() (Request, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return Request{}, false
	}
	return *p.current, true
}

func (p *Pending) Confirm() (Request, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return Request{}, ErrNothingPending
	}

	req := *p.current
	p.current = nil
	return req, nil
}

// Cancel drops the pending request and reports whether there was one.
func (p *Pending) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	had := p.current != nil
	p.current = nil
	return had
}
