package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	Simulations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saitx_simulations_total",
			Help: "number of gas simulations by result",
		},
		[]string{"result"},
	)

	Signatures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saitx_signatures_total",
			Help: "number of signatures produced by scheme",
		},
		[]string{"scheme"},
	)

	Broadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saitx_broadcasts_total",
			Help: "number of broadcast attempts by outcome stage",
		},
		[]string{"stage"},
	)

	TxResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saitx_tx_results_total",
			Help: "number of tx result lookups by outcome stage",
		},
		[]string{"stage"},
	)
)

func ResultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Serve exposes /metrics on addr in the background. An empty addr disables it.
func Serve(addr string, log *zap.Logger) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics listener stopped", zap.String("listen", addr), zap.Error(err))
		}
	}()
}
