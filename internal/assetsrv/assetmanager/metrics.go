package assetmanager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetsrv_checkouts_total",
			Help: "Check-out attempts by result",
		},
		[]string{"result"},
	)

	checkinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetsrv_checkins_total",
			Help: "Check-in attempts by result",
		},
		[]string{"result"},
	)

	checkinRollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetsrv_checkin_rollbacks_total",
			Help: "Commits removed because the asset could not be advanced",
		},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetsrv_upload_bytes_total",
			Help: "Bytes written to the blob store by staging uploads",
		},
	)
)

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
