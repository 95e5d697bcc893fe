package recovery

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/slip"
)

// Record é o fallback local criado quando a escrita no ledger falha
// depois do sucesso on-chain: a aposta nunca se perde em silêncio.
// Exatamente um registro por digest.
type Record struct {
	TxDigest        string              `json:"tx_digest"`
	CreatedObjectID string              `json:"onchain_bet_id,omitempty"`
	WalletAddress   string              `json:"wallet_address"`
	Kind            string              `json:"kind"` // "single" | "parlay"
	Selections      []slip.BetSelection `json:"selections"`
	StakeAmount     float64             `json:"stake_amount"`
	Currency        string              `json:"currency"`
	PaymentMethod   string              `json:"payment_method"`
	Attempts        int                 `json:"attempts"`
	LastError       string              `json:"last_error,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// Store persiste registros de recuperação em SQLite local
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// EnsureSchema cria a tabela se não existir
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS recovery_records (
		tx_digest      TEXT PRIMARY KEY,
		onchain_bet_id TEXT NOT NULL DEFAULT '',
		wallet_address TEXT NOT NULL,
		kind           TEXT NOT NULL,
		selections     TEXT NOT NULL,
		stake_amount   REAL NOT NULL,
		currency       TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		attempts       INTEGER NOT NULL DEFAULT 0,
		last_error     TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMP NOT NULL
	);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create recovery table: %w", err)
	}
	return nil
}

// Put insere o registro; digest repetido é no-op (idempotente)
func (s *Store) Put(ctx context.Context, r Record) error {
	sels, _ := json.Marshal(r.Selections)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recovery_records
			(tx_digest, onchain_bet_id, wallet_address, kind, selections, stake_amount, currency, payment_method, attempts, last_error, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (tx_digest) DO NOTHING`,
		r.TxDigest, r.CreatedObjectID, r.WalletAddress, r.Kind, string(sels),
		r.StakeAmount, r.Currency, r.PaymentMethod, r.Attempts, r.LastError, r.CreatedAt,
	)
	return err
}

// Pending lista registros aguardando reprocessamento, mais antigos
// primeiro
func (s *Store) Pending(ctx context.Context, maxAttempts, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_digest, onchain_bet_id, wallet_address, kind, selections, stake_amount, currency, payment_method, attempts, last_error, created_at
		FROM recovery_records
		WHERE attempts < $1
		ORDER BY created_at ASC
		LIMIT $2`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var sels string
		if err := rows.Scan(&r.TxDigest, &r.CreatedObjectID, &r.WalletAddress, &r.Kind, &sels,
			&r.StakeAmount, &r.Currency, &r.PaymentMethod, &r.Attempts, &r.LastError, &r.CreatedAt); err != nil {
			return nil, err
		}
		if jerr := json.Unmarshal([]byte(sels), &r.Selections); jerr != nil {
			// registro ilegível não derruba o sweep
			continue
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Exhausted lista registros que esgotaram as tentativas (candidatos à
// DLQ)
func (s *Store) Exhausted(ctx context.Context, maxAttempts, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx_digest, onchain_bet_id, wallet_address, kind, selections, stake_amount, currency, payment_method, attempts, last_error, created_at
		FROM recovery_records
		WHERE attempts >= $1
		ORDER BY created_at ASC
		LIMIT $2`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var sels string
		if err := rows.Scan(&r.TxDigest, &r.CreatedObjectID, &r.WalletAddress, &r.Kind, &sels,
			&r.StakeAmount, &r.Currency, &r.PaymentMethod, &r.Attempts, &r.LastError, &r.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(sels), &r.Selections)
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkAttempt incrementa o contador de tentativas e guarda o último
// erro
func (s *Store) MarkAttempt(ctx context.Context, txDigest, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE recovery_records SET attempts = attempts + 1, last_error = $1 WHERE tx_digest = $2`,
		lastError, txDigest)
	return err
}

// Delete remove o registro após sincronização bem-sucedida
func (s *Store) Delete(ctx context.Context, txDigest string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recovery_records WHERE tx_digest = $1`, txDigest)
	return err
}

// Count retorna o total de registros pendentes (exposto no healthz do
// sweeper)
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recovery_records`).Scan(&n)
	return n, err
}
