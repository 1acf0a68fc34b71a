package httptransport

import "expvar"

var (
	metricSSEConnectionsTotal  = expvar.NewInt("sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("sse_connections_active")

	metricRequestErrors = expvar.NewInt("api_errors_total")
)
