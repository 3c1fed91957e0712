package cron

import (
	"context"
	"fmt"
)

// Job is one housekeeping task run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps jobs by unique name in the order they were added.
type Registry struct {
	jobs  []Job
	index map[string]int
}

func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{index: map[string]int{}}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	name := job.Name()
	if _, dup := r.index[name]; dup {
		return fmt.Errorf("job %q registered twice", name)
	}
	r.index[name] = len(r.jobs)
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

// Select returns the named jobs, or every job when names is empty.
func (r *Registry) Select(names ...string) ([]Job, error) {
	if len(names) == 0 {
		return r.Jobs(), nil
	}
	out := make([]Job, 0, len(names))
	for _, name := range names {
		i, ok := r.index[name]
		if !ok {
			return nil, fmt.Errorf("unknown job %q", name)
		}
		out = append(out, r.jobs[i])
	}
	return out, nil
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.jobs))
	for i, job := range r.jobs {
		names[i] = job.Name()
	}
	return names
}
