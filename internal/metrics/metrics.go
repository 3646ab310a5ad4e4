package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TextsCached = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vault_bot_texts_cached_total",
		Help: "Total text messages written to the temporal cache.",
	})
	MediaCached = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vault_bot_media_cached_total",
		Help: "Total media items downloaded and cached.",
	})
	ViewOnceForwards = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vault_bot_view_once_forwards_total",
		Help: "Total view-once items forwarded at capture time.",
	})
	Recoveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vault_bot_recoveries_total",
		Help: "Total deleted messages recovered and forwarded.",
	})
	ForwardFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vault_bot_forward_failures_total",
		Help: "Total vault forward attempts that failed.",
	})
	ExcludedSkips = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vault_bot_excluded_skips_total",
		Help: "Total messages skipped by the excluded-group check.",
	})
	SweepRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vault_bot_sweep_removed_total",
		Help: "Total cache records removed by expiry sweeps.",
	})
	OrphansDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vault_bot_orphan_files_deleted_total",
		Help: "Total orphaned temp files deleted by the cleanup scan.",
	})
)

func Register() {
	prometheus.MustRegister(
		TextsCached, MediaCached,
		ViewOnceForwards, Recoveries, ForwardFailures,
		ExcludedSkips, SweepRemoved, OrphansDeleted,
	)
}
