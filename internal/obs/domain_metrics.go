package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationTotal counts cart mutation outcomes per operation.
	CartMutationTotal *prometheus.CounterVec
	// CouponApplyTotal counts coupon application outcomes.
	CouponApplyTotal *prometheus.CounterVec
	// CouponRemoveTotal counts coupon removal outcomes.
	CouponRemoveTotal *prometheus.CounterVec
	// CatalogCacheTotal counts catalog cache lookups by result.
	CatalogCacheTotal *prometheus.CounterVec
	// CartPersistenceErrors counts failed cart store round trips.
	CartPersistenceErrors prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutation_total",
			Help:      "Count of cart mutation outcomes by operation.",
		}, []string{"operation", "result"})
		CouponApplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_apply_total",
			Help:      "Count of coupon application outcomes.",
		}, []string{"result"})
		CouponRemoveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_remove_total",
			Help:      "Count of coupon removal outcomes.",
		}, []string{"result"})
		CatalogCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Count of catalog cache lookups by result.",
		}, []string{"result"})
		CartPersistenceErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_persistence_errors_total",
			Help:      "Number of failed cart store operations.",
		})

		mustRegisterCollector(reg, CartMutationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartMutationTotal = v
			}
		})
		mustRegisterCollector(reg, CouponApplyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponApplyTotal = v
			}
		})
		mustRegisterCollector(reg, CouponRemoveTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponRemoveTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogCacheTotal = v
			}
		})
		mustRegisterCollector(reg, CartPersistenceErrors, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartPersistenceErrors = v
			}
		})
	})
}

// IncCartMutation records the outcome of a cart mutation when metrics are registered.
func IncCartMutation(operation, result string) {
	if CartMutationTotal == nil {
		return
	}
	CartMutationTotal.WithLabelValues(operation, result).Inc()
}

// IncCouponApply records the outcome of a coupon application when metrics are registered.
func IncCouponApply(result string) {
	if CouponApplyTotal == nil {
		return
	}
	CouponApplyTotal.WithLabelValues(result).Inc()
}

// IncCouponRemove records the outcome of a coupon removal when metrics are registered.
func IncCouponRemove(result string) {
	if CouponRemoveTotal == nil {
		return
	}
	CouponRemoveTotal.WithLabelValues(result).Inc()
}

// IncCatalogCache records a catalog cache lookup result when metrics are registered.
func IncCatalogCache(result string) {
	if CatalogCacheTotal == nil {
		return
	}
	CatalogCacheTotal.WithLabelValues(result).Inc()
}

// IncCartPersistenceError records a failed cart store round trip when metrics are registered.
func IncCartPersistenceError() {
	if CartPersistenceErrors == nil {
		return
	}
	CartPersistenceErrors.Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
