package metrics

import (
	"fmt"
	"slices"

	dto "github.com/prometheus/client_model/go"
)

// fetchCounterValue sums every series of name carrying label=value.
func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	var sum float64
	found := false
	for _, m := range mf.GetMetric() {
		if matchesLabel(m.GetLabel(), label, value) {
			sum += m.GetCounter().GetValue()
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("metric %q has no series with %s=%s", name, label, value)
	}
	return sum, nil
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	i := slices.IndexFunc(mfs, func(mf *dto.MetricFamily) bool { return mf.GetName() == name })
	if i < 0 {
		return nil
	}
	return mfs[i]
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	return slices.ContainsFunc(labels, func(l *dto.LabelPair) bool {
		return l.GetName() == name && l.GetValue() == value
	})
}
