package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Métricas de domínio do fluxo de aposta on-chain, registradas no
// registry default (expostas pelo servidor de /metrics de cada serviço)
var (
	BetSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bet_submissions_total",
		Help: "Submissões de aposta por resultado (final, failed, timeout)",
	}, []string{"result"})

	ChainConfirmSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chain_confirm_seconds",
		Help:    "Tempo entre broadcast e finalidade on-chain",
		Buckets: prometheus.DefBuckets,
	})

	RecoveryRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recovery_records_total",
		Help: "Registros de recuperação criados (ledger falhou pós-chain)",
	})

	LedgerWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_writes_total",
		Help: "Escritas no ledger off-chain por resultado (ok, error)",
	}, []string{"result"})
)
