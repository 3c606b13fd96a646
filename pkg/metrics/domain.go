package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics tracks recipe-level events: slug generation, list membership
// changes and shopping list downloads.
type DomainMetrics struct {
	slugAttempts    prometheus.Histogram
	slugExhausted   prometheus.Counter
	memberships     *prometheus.CounterVec
	subscriptions   *prometheus.CounterVec
	cartDownloads   prometheus.Counter
	cartIngredients prometheus.Histogram
}

// NewDomainMetrics registers the domain metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	m := &DomainMetrics{
		slugAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "slug_generation_attempts",
			Help:    "Candidates drawn before a free short-link slug was found.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		slugExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slug_generation_exhausted_total",
			Help: "Slug generations that ran out of attempts.",
		}),
		memberships: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipe_membership_changes_total",
			Help: "Favorite and shopping cart additions and removals.",
		}, []string{"list", "action"}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_changes_total",
			Help: "Author subscriptions created and removed.",
		}, []string{"action"}),
		cartDownloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopping_list_downloads_total",
			Help: "Rendered shopping list downloads.",
		}),
		cartIngredients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopping_list_ingredient_lines",
			Help:    "Aggregated ingredient lines per rendered shopping list.",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		}),
	}
	reg.MustRegister(m.slugAttempts, m.slugExhausted, m.memberships, m.subscriptions, m.cartDownloads, m.cartIngredients)
	return m
}

// ObserveSlugAttempts records how many candidates one generation drew.
func (m *DomainMetrics) ObserveSlugAttempts(attempts int) {
	if m == nil || m.slugAttempts == nil {
		return
	}
	m.slugAttempts.Observe(float64(attempts))
}

func (m *DomainMetrics) IncSlugExhausted() {
	if m == nil || m.slugExhausted == nil {
		return
	}
	m.slugExhausted.Inc()
}

// IncMembership counts an add or remove on the named list.
func (m *DomainMetrics) IncMembership(list, action string) {
	if m == nil || m.memberships == nil {
		return
	}
	m.memberships.WithLabelValues(normalizeLabel(list), normalizeLabel(action)).Inc()
}

func (m *DomainMetrics) IncSubscription(action string) {
	if m == nil || m.subscriptions == nil {
		return
	}
	m.subscriptions.WithLabelValues(normalizeLabel(action)).Inc()
}

// ObserveShoppingList counts a download and its aggregated line count.
func (m *DomainMetrics) ObserveShoppingList(lines int) {
	if m == nil || m.cartDownloads == nil {
		return
	}
	m.cartDownloads.Inc()
	m.cartIngredients.Observe(float64(lines))
}
