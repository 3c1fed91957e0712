package wizard

import (
	"fmt"
	"sync"
)

type FieldKind string

const (
	KindText       FieldKind = "text"
	KindEmail      FieldKind = "email"
	KindPhone      FieldKind = "phone"
	KindCategories FieldKind = "categories"
	KindTerms      FieldKind = "terms"
)

type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	// Matches names another field in the same step that must hold the
	// same value.
	Matches string
}

type Step struct {
	Title  string
	Fields []Field
}

// Values holds submitted form values: strings, string slices or bools.
type Values map[string]any

// Result carries field errors keyed by field name.
type Result struct {
	Errors map[string]string
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

type Progress struct {
	Step    int
	Total   int
	Percent int
}

// Wizard walks a fixed sequence of steps. It only moves forward when the
// current step validates; moving back always succeeds.
type Wizard struct {
	steps []Step

	mu       sync.Mutex
	current  int
	complete bool
}

func New(steps []Step) (*Wizard, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("wizard needs at least one step")
	}
	return &Wizard{steps: steps}, nil
}

func (w *Wizard) Current() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps[w.current]
}

func (w *Wizard) Len() int {
	return len(w.steps)
}

// Complete reports whether the last step has validated.
func (w *Wizard) Complete() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.complete
}

// Next validates the current step against values and advances on success.
// On the last step a success marks the wizard complete.
func (w *Wizard) Next(values Values) (Result, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	res := ValidateStep(w.steps[w.current], values)
	if !res.Valid() {
		return res, false
	}
	if w.current == len(w.steps)-1 {
		w.complete = true
		return res, true
	}
	w.current++
	return res, true
}

// Prev moves one step back, staying on the first step.
func (w *Wizard) Prev() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.complete = false
	if w.current > 0 {
		w.current--
	}
	return true
}

func (w *Wizard) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := Progress{Step: w.current + 1, Total: len(w.steps), Percent: 100}
	if len(w.steps) > 1 {
		p.Percent = w.current * 100 / (len(w.steps) - 1)
	}
	return p
}

// ValidateStep checks every field of step against values.
func ValidateStep(step Step, values Values) Result {
	res := Result{Errors: map[string]string{}}
	for _, f := range step.Fields {
		if msg := validateField(f, values); msg != "" {
			res.Errors[f.Name] = msg
		}
	}
	return res
}

func validateField(f Field, values Values) string {
	raw := values[f.Name]

	switch f.Kind {
	case KindCategories:
		if err := validate.Var(asStrings(raw), "min=1"); err != nil {
			return messageFor(err)
		}
		return ""
	case KindTerms:
		if err := validate.Var(asBool(raw), "accepted"); err != nil {
			return messageFor(err)
		}
		return ""
	}

	value := asString(raw)
	if value == "" {
		if f.Required {
			return MsgRequired
		}
		return ""
	}

	tag := ""
	switch f.Kind {
	case KindEmail:
		tag = "email_shape"
	case KindPhone:
		tag = "phone10"
	}
	if tag != "" {
		if err := validate.Var(value, tag); err != nil {
			return messageFor(err)
		}
	}
	if f.Matches != "" && value != asString(values[f.Matches]) {
		return MsgMismatch
	}
	return ""
}
