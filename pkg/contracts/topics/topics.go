package topics

const (
	// Bets
	BetConfirmed = "bet_confirmed"

	// Recuperação (ledger off-chain falhou após sucesso on-chain)
	BetRecovery    = "bet_recovery"
	BetRecoveryDLQ = "bet_recovery_dlq"

	// Live
	LiveMinutes = "live_minutes"
)
