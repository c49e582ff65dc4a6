package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shortlink"

var (
	LinksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "links_created_total",
		Help:      "Short links created, by how the code was chosen.",
	}, []string{"mode"})

	CodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "code_collisions_total",
		Help:      "Generated codes that were already taken.",
	})

	AllocationExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "allocation_exhausted_total",
		Help:      "Create requests that ran out of generation attempts.",
	})

	Redirects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redirects_total",
		Help:      "Successful short link redirects.",
	})
)

const (
	ModeCustom    = "custom"
	ModeGenerated = "generated"
)
