// Package metrics exposes Prometheus counters for the fetch pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesWalked counts search-results pages successfully fetched and parsed.
	PagesWalked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfetch_pages_walked_total",
		Help: "The total number of search results pages walked.",
	})
	// LinksDispatched counts short links submitted for fetching.
	LinksDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfetch_links_dispatched_total",
		Help: "The total number of outbound links submitted for fetching.",
	})
	// CertificateSkips counts fetches dropped for TLS certificate failures.
	CertificateSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfetch_certificate_skips_total",
		Help: "The total number of link fetches skipped due to certificate errors.",
	})
	// SelfRedirectSkips counts responses that redirected back to the platform.
	SelfRedirectSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfetch_self_redirect_skips_total",
		Help: "The total number of responses discarded as platform self-redirects.",
	})
	// ArticlesRejected counts responses that failed article validation.
	ArticlesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfetch_articles_rejected_total",
		Help: "The total number of responses rejected during article assembly.",
	})
	// ArticlesEmitted counts validated article records yielded to the caller.
	ArticlesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsfetch_articles_emitted_total",
		Help: "The total number of article records emitted.",
	})
)
