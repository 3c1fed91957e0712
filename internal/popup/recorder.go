package popup

import "sync"

// Recorder is a Presenter that remembers what it was asked to draw.
type Recorder struct {
	mu        sync.Mutex
	Toasts    []Toast
	Dismissed []string
	Modals    []Modal
	Closed    []string
}

func (r *Recorder) ShowToast(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Toasts = append(r.Toasts, t)
}

func (r *Recorder) DismissToast(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Dismissed = append(r.Dismissed, id)
}

func (r *Recorder) ShowModal(m Modal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Modals = append(r.Modals, m)
}

func (r *Recorder) CloseModal(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed = append(r.Closed, id)
}

// LastToast returns the most recent toast shown.
func (r *Recorder) LastToast() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Toasts) == 0 {
		return Toast{}, false
	}
	return r.Toasts[len(r.Toasts)-1], true
}

// ToastsAt returns the toasts of one level in display order.
func (r *Recorder) ToastsAt(level Level) []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Toast
	for _, t := range r.Toasts {
		if t.Level == level {
			out = append(out, t)
		}
	}
	return out
}
