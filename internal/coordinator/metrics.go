package coordinator

import "expvar"

var (
	metricStartsTotal      = expvar.NewInt("bingo_starts_total")
	metricDrawsTotal       = expvar.NewInt("bingo_draws_total")
	metricResetsTotal      = expvar.NewInt("bingo_resets_total")
	metricStaleWritesTotal = expvar.NewInt("bingo_stale_writes_total")
	metricReconcileTotal   = expvar.NewInt("bingo_reconcile_passes_total")
	metricReconcileErrors  = expvar.NewInt("bingo_reconcile_errors_total")
)
