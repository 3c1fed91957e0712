package popup

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// DefaultToastDuration applies to the convenience toast helpers.
const DefaultToastDuration = 5 * time.Second

type ModalKind string

const (
	ModalAlert   ModalKind = "alert"
	ModalConfirm ModalKind = "confirm"
	ModalCustom  ModalKind = "custom"
	ModalLoading ModalKind = "loading"
)

type Toast struct {
	ID        string
	Level     Level
	Title     string
	Message   string
	CreatedAt time.Time
	// ExpiresAt is zero for toasts that stay until dismissed.
	ExpiresAt time.Time
}

func (t Toast) expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

type Button struct {
	Label string
	Value bool
	Style string
}

type Modal struct {
	ID      string
	Kind    ModalKind
	Level   Level
	Title   string
	Body    string
	Icon    string
	Buttons []Button
}

// ConfirmOptions customizes the confirm dialog buttons.
type ConfirmOptions struct {
	ConfirmText  string
	CancelText   string
	ConfirmStyle string
	Icon         string
}

// Presenter draws toasts and modals. Calls happen outside the manager lock,
// but modal calls are serialized so they arrive in queue order.
type Presenter interface {
	ShowToast(Toast)
	DismissToast(id string)
	ShowModal(Modal)
	CloseModal(id string)
}

// Pending is the eventual answer of a modal.
type Pending struct {
	id     string
	done   chan struct{}
	once   sync.Once
	result bool
}

func newPending(id string) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

func (p *Pending) ID() string { return p.id }

// Done is closed once the modal is answered.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the modal is answered or ctx ends.
func (p *Pending) Wait(ctx context.Context) (bool, error) {
	select {
	case <-p.done:
		return p.result, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (p *Pending) resolve(result bool) {
	p.once.Do(func() {
		p.result = result
		close(p.done)
	})
}

type queuedModal struct {
	modal   Modal
	pending *Pending
}

// Manager mediates every toast and modal shown to the vendor. Only one
// modal is visible at a time; later requests wait in arrival order.
type Manager struct {
	presenter Presenter
	now       func() time.Time

	// present is taken before mu and held across modal presenter calls.
	present sync.Mutex

	mu     sync.Mutex
	toasts []Toast
	active *queuedModal
	queue  []*queuedModal
}

type Option func(*Manager)

// WithClock overrides the time source used for toast expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(presenter Presenter, opts ...Option) *Manager {
	m := &Manager{presenter: presenter, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Toast shows a toast for d. A non-positive d keeps it until dismissed.
func (m *Manager) Toast(level Level, title, message string, d time.Duration) string {
	now := m.now()
	t := Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: now,
	}
	if d > 0 {
		t.ExpiresAt = now.Add(d)
	}

	m.mu.Lock()
	m.toasts = append(pruneExpired(m.toasts, now), t)
	m.mu.Unlock()

	if m.presenter != nil {
		m.presenter.ShowToast(t)
	}
	return t.ID
}

func (m *Manager) Success(title, message string) string {
	return m.Toast(LevelSuccess, defaultTitle(title, "Success"), message, DefaultToastDuration)
}

func (m *Manager) Error(title, message string) string {
	return m.Toast(LevelError, defaultTitle(title, "Error"), message, DefaultToastDuration)
}

func (m *Manager) Warning(title, message string) string {
	return m.Toast(LevelWarning, defaultTitle(title, "Warning"), message, DefaultToastDuration)
}

func (m *Manager) Info(title, message string) string {
	return m.Toast(LevelInfo, defaultTitle(title, "Info"), message, DefaultToastDuration)
}

// Dismiss removes a toast before it expires.
func (m *Manager) Dismiss(id string) bool {
	m.mu.Lock()
	found := false
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			found = true
			break
		}
	}
	m.mu.Unlock()

	if found && m.presenter != nil {
		m.presenter.DismissToast(id)
	}
	return found
}

// Active prunes expired toasts and returns the ones still visible at now.
func (m *Manager) Active(now time.Time) []Toast {
	m.mu.Lock()
	m.toasts = pruneExpired(m.toasts, now)
	out := append([]Toast(nil), m.toasts...)
	m.mu.Unlock()
	return out
}

func pruneExpired(toasts []Toast, now time.Time) []Toast {
	kept := toasts[:0]
	for _, t := range toasts {
		if !t.expired(now) {
			kept = append(kept, t)
		}
	}
	return kept
}

func (m *Manager) Alert(message, title string, level Level) *Pending {
	if level == "" {
		level = LevelInfo
	}
	return m.enqueue(Modal{
		Kind:    ModalAlert,
		Level:   level,
		Title:   defaultTitle(title, "Alert"),
		Body:    message,
		Buttons: []Button{{Label: "OK", Value: true, Style: "primary"}},
	})
}

func (m *Manager) Confirm(message, title string, opts ConfirmOptions) *Pending {
	style := opts.ConfirmStyle
	if style == "" {
		style = "danger"
	}
	return m.enqueue(Modal{
		Kind:  ModalConfirm,
		Level: LevelInfo,
		Title: defaultTitle(title, "Confirm"),
		Body:  message,
		Icon:  opts.Icon,
		Buttons: []Button{
			{Label: defaultTitle(opts.CancelText, "Cancel"), Value: false, Style: "secondary"},
			{Label: defaultTitle(opts.ConfirmText, "Confirm"), Value: true, Style: style},
		},
	})
}

func (m *Manager) Custom(title, body string, buttons []Button) *Pending {
	return m.enqueue(Modal{
		Kind:    ModalCustom,
		Title:   title,
		Body:    body,
		Buttons: append([]Button(nil), buttons...),
	})
}

// Loading shows a spinner modal. Resolve or Escape closes it.
func (m *Manager) Loading(message string) *Pending {
	return m.enqueue(Modal{
		Kind: ModalLoading,
		Body: defaultTitle(message, "Loading..."),
	})
}

func (m *Manager) ConfirmDelete(itemName string) *Pending {
	itemName = defaultTitle(itemName, "this item")
	return m.Confirm(
		"Are you sure you want to delete "+itemName+"? This action cannot be undone.",
		"Delete Confirmation",
		ConfirmOptions{ConfirmText: "Delete", CancelText: "Cancel", ConfirmStyle: "danger", Icon: "trash"},
	)
}

func (m *Manager) ConfirmDeleteAll(itemType string) *Pending {
	itemType = defaultTitle(itemType, "items")
	return m.Confirm(
		"Are you sure you want to delete ALL "+itemType+"? This action cannot be undone.",
		"Delete All Confirmation",
		ConfirmOptions{ConfirmText: "Delete All", CancelText: "Cancel", ConfirmStyle: "danger", Icon: "warning"},
	)
}

func (m *Manager) ConfirmMarkAllRead() *Pending {
	return m.Confirm(
		"Mark all notifications as read?",
		"Mark All Read",
		ConfirmOptions{ConfirmText: "Mark All Read", CancelText: "Cancel", ConfirmStyle: "success", Icon: "check-double"},
	)
}

func (m *Manager) enqueue(modal Modal) *Pending {
	modal.ID = uuid.NewString()
	entry := &queuedModal{modal: modal, pending: newPending(modal.ID)}

	m.present.Lock()
	defer m.present.Unlock()

	m.mu.Lock()
	show := m.active == nil
	if show {
		m.active = entry
	} else {
		m.queue = append(m.queue, entry)
	}
	m.mu.Unlock()

	if show && m.presenter != nil {
		m.presenter.ShowModal(modal)
	}
	return entry.pending
}

// Resolve answers the visible modal and shows the next queued one. It
// reports false when no modal is open.
func (m *Manager) Resolve(result bool) bool {
	m.present.Lock()
	defer m.present.Unlock()

	m.mu.Lock()
	current := m.active
	if current == nil {
		m.mu.Unlock()
		return false
	}
	var next *queuedModal
	if len(m.queue) > 0 {
		next = m.queue[0]
		m.queue = m.queue[1:]
	}
	m.active = next
	m.mu.Unlock()

	if m.presenter != nil {
		m.presenter.CloseModal(current.modal.ID)
	}
	current.pending.resolve(result)
	if next != nil && m.presenter != nil {
		m.presenter.ShowModal(next.modal)
	}
	return true
}

// Escape closes the visible modal with a negative answer.
func (m *Manager) Escape() bool {
	return m.Resolve(false)
}

// ActiveModal returns the visible modal, if any.
func (m *Manager) ActiveModal() (Modal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Modal{}, false
	}
	return m.active.modal, true
}

// Queued reports how many modals wait behind the visible one.
func (m *Manager) Queued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func defaultTitle(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
