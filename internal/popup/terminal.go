package popup

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

var levelMarks = map[Level]string{
	LevelSuccess: "[ok]",
	LevelError:   "[error]",
	LevelWarning: "[warn]",
	LevelInfo:    "[info]",
}

// Terminal renders toasts and modals as lines of text.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) ShowToast(toast Toast) {
	mark := levelMarks[toast.Level]
	if mark == "" {
		mark = levelMarks[LevelInfo]
	}
	line := toast.Message
	if toast.Title != "" {
		line = toast.Title + ": " + toast.Message
	}
	t.printf("%s %s\n", mark, line)
}

func (t *Terminal) DismissToast(string) {}

func (t *Terminal) ShowModal(m Modal) {
	if m.Kind == ModalLoading {
		t.printf("... %s\n", m.Body)
		return
	}
	labels := make([]string, 0, len(m.Buttons))
	for _, b := range m.Buttons {
		key := "n"
		if b.Value {
			key = "y"
		}
		labels = append(labels, fmt.Sprintf("%s=%s", key, b.Label))
	}
	t.printf("== %s ==\n%s\n(%s)\n", m.Title, m.Body, strings.Join(labels, ", "))
}

func (t *Terminal) CloseModal(string) {}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.out, format, args...)
}
