package cron

import (
	"fmt"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func fetchCounter(mfs []*dto.MetricFamily, name, job string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "job" && lp.GetValue() == job {
					return m.GetCounter().GetValue(), nil
				}
			}
		}
	}
	return 0, fmt.Errorf("metric %s{job=%q} not found", name, job)
}

func registryOf(t *testing.T, jobs ...Job) *Registry {
	t.Helper()
	registry := NewRegistry()
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			t.Fatalf("register %s: %v", job.Name(), err)
		}
	}
	return registry
}
