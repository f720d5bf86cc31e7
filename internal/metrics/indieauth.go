package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IndieAuth protocol metrics. Defined in a standalone package to avoid
// import cycles between services and HTTP packages.

var (
	AuthCodesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_codes_issued_total",
		Help: "Authorization codes issued",
	})

	CodeExchangeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "indieauth_code_exchange_failures_total",
		Help: "Failed code exchanges by reason",
	}, []string{"reason"})

	TokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_tokens_issued_total",
		Help: "Bearer tokens issued",
	})

	TokensRevoked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "indieauth_tokens_revoked_total",
		Help: "Bearer tokens revoked",
	})

	ClientDiscoveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "indieauth_client_discoveries_total",
		Help: "Client metadata discoveries by result (hit, resolved, failed)",
	}, []string{"result"})

	ThumbnailLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "indieauth_thumbnail_lookups_total",
		Help: "Thumbnail cache lookups by result (fresh, fetched, failed)",
	}, []string{"result"})
)

// Register registers the IndieAuth metrics on the given registry
// (or the default if nil). Re-registration is tolerated.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		AuthCodesIssued,
		CodeExchangeFailures,
		TokensIssued,
		TokensRevoked,
		ClientDiscoveries,
		ThumbnailLookups,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
