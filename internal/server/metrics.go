package server

import "github.com/prometheus/client_golang/prometheus"

var (
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvs_server_sessions_active",
		Help: "number of client sessions currently open",
	})

	SessionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvs_server_sessions_total",
		Help: "number of client sessions accepted",
	})

	RequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kvs_server_request_duration_seconds",
		Help:    "time spent executing a request against the engine",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"op"})

	RequestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvs_server_request_errors_total",
		Help: "number of requests answered with an error",
	}, []string{"op", "code"})

	MalformedFrames = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvs_server_malformed_frames_total",
		Help: "number of connections closed because of an undecodable request",
	})
)

func init() {
	prometheus.MustRegister(SessionsActive, SessionsTotal, RequestDurationSeconds, RequestErrors, MalformedFrames)
}
