package events

// Evento publicado na DLQ quando o sweeper esgota as tentativas de
// reprocessar um registro de recuperação. O operador decide o destino.
type BetRecoveryExhausted struct {
	TxDigest     string `json:"tx_digest"`
	OnChainBetID string `json:"onchain_bet_id,omitempty"`
	Attempts     int    `json:"attempts"`
	LastError    string `json:"last_error"`
	TsUnixMs     int64  `json:"ts_unix_ms"`
}
