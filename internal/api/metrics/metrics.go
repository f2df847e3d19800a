// Package metrics holds the application's Prometheus collectors. HTTP
// request metrics come from the echoprometheus middleware; these cover the
// auth and upload flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dating"

// RegistrationsTotal counts accounts created.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of user accounts registered.",
	},
)

// LoginAttemptsTotal counts login calls.
// Label:
//   - result: "success" or "failure"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokensRevokedTotal counts logouts.
var TokensRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_revoked_total",
		Help:      "Total number of session tokens revoked through logout.",
	},
)

// PhotoUploadsTotal counts upload requests.
// Label:
//   - result: "success", "not_image", "too_large" or "error"
var PhotoUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "photo_uploads_total",
		Help:      "Total number of photo uploads, by result.",
	},
	[]string{"result"},
)

var PhotoUploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "photo_upload_bytes",
		Help:      "Size of accepted photo uploads.",
		Buckets:   prometheus.ExponentialBuckets(64<<10, 2, 8), // 64KiB .. 8MiB
	},
)
