package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Postgres implementa o armazenamento do ledger em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// EnsureSchema cria as tabelas na subida do serviço
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bets (
			id               UUID PRIMARY KEY,
			kind             TEXT NOT NULL,
			wallet_address   TEXT NOT NULL DEFAULT '',
			event_id         TEXT NOT NULL,
			market_id        TEXT NOT NULL DEFAULT '',
			outcome_id       TEXT NOT NULL DEFAULT '',
			prediction       TEXT NOT NULL DEFAULT '',
			odds             DOUBLE PRECISION NOT NULL,
			stake            DOUBLE PRECISION NOT NULL,
			potential_payout DOUBLE PRECISION NOT NULL,
			currency         TEXT NOT NULL,
			tx_hash          TEXT UNIQUE,
			onchain_bet_id   TEXT NOT NULL DEFAULT '',
			payment_method   TEXT NOT NULL,
			status           TEXT NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS bet_legs (
			bet_id         UUID NOT NULL REFERENCES bets(id),
			leg_index      INT NOT NULL,
			event_id       TEXT NOT NULL,
			event_name     TEXT NOT NULL DEFAULT '',
			market_id      TEXT NOT NULL DEFAULT '',
			outcome_id     TEXT NOT NULL DEFAULT '',
			selection_name TEXT NOT NULL DEFAULT '',
			odds           DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (bet_id, leg_index)
		);
	`)
	return err
}

// Upsert grava a aposta. Com tx_hash o conflito é absorvido e a linha
// existente é devolvida: reenviar a mesma transação confirmada nunca
// duplica registro. tx_hash NULL (saldo de plataforma) sempre insere.
func (p *Postgres) Upsert(ctx context.Context, bet Bet) (Bet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, err
	}
	defer tx.Rollback()

	bet.Status = initialStatus(bet.TxHash)
	newID := uuid.New().String()

	var txHash sql.NullString
	if bet.TxHash != "" {
		txHash = sql.NullString{String: bet.TxHash, Valid: true}
	}

	var inserted bool
	err = tx.QueryRowContext(ctx, `
		INSERT INTO bets(id, kind, wallet_address, event_id, market_id, outcome_id,
			prediction, odds, stake, potential_payout, currency, tx_hash,
			onchain_bet_id, payment_method, status)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (tx_hash) DO UPDATE
			SET onchain_bet_id = EXCLUDED.onchain_bet_id,
			    updated_at     = now()
		RETURNING id, status, (xmax = 0)`,
		newID, bet.Kind, bet.WalletAddress, bet.EventID, bet.MarketID, bet.OutcomeID,
		bet.Prediction, bet.Odds, bet.Stake, bet.PotentialPayout, bet.Currency, txHash,
		bet.OnChainBetID, bet.PaymentMethod, bet.Status,
	).Scan(&bet.ID, &bet.Status, &inserted)
	if err != nil {
		return Bet{}, err
	}

	if inserted && len(bet.Legs) > 0 {
		for i, leg := range bet.Legs {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO bet_legs(bet_id, leg_index, event_id, event_name, market_id, outcome_id, selection_name, odds)
				VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
				bet.ID, i, leg.EventID, leg.EventName, leg.MarketID, leg.OutcomeID, leg.SelectionName, leg.Odds); err != nil {
				return Bet{}, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return Bet{}, err
	}
	return bet, nil
}

// Get busca a aposta com as pernas, se houver
func (p *Postgres) Get(ctx context.Context, id string) (Bet, error) {
	var bet Bet
	var txHash sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT id, kind, wallet_address, event_id, market_id, outcome_id,
			prediction, odds, stake, potential_payout, currency, tx_hash,
			onchain_bet_id, payment_method, status
		FROM bets WHERE id=$1`, id).Scan(
		&bet.ID, &bet.Kind, &bet.WalletAddress, &bet.EventID, &bet.MarketID, &bet.OutcomeID,
		&bet.Prediction, &bet.Odds, &bet.Stake, &bet.PotentialPayout, &bet.Currency, &txHash,
		&bet.OnChainBetID, &bet.PaymentMethod, &bet.Status)
	if err == sql.ErrNoRows {
		return Bet{}, ErrNotFound
	}
	if err != nil {
		return Bet{}, err
	}
	bet.TxHash = txHash.String

	rows, err := p.db.QueryContext(ctx, `
		SELECT event_id, event_name, market_id, outcome_id, selection_name, odds
		FROM bet_legs WHERE bet_id=$1 ORDER BY leg_index`, id)
	if err != nil {
		return Bet{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var leg Leg
		if err := rows.Scan(&leg.EventID, &leg.EventName, &leg.MarketID, &leg.OutcomeID, &leg.SelectionName, &leg.Odds); err != nil {
			return Bet{}, err
		}
		bet.Legs = append(bet.Legs, leg)
	}
	return bet, rows.Err()
}

// Settle avança o status da aposta validando a transição sob lock
func (p *Postgres) Settle(ctx context.Context, id, to string) (Bet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM bets WHERE id=$1 FOR UPDATE`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return Bet{}, ErrNotFound
	}
	if err != nil {
		return Bet{}, err
	}

	if current == to {
		// idempotente
		if err = tx.Commit(); err != nil {
			return Bet{}, err
		}
		return p.Get(ctx, id)
	}
	if !CanTransition(current, to) {
		return Bet{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE bets SET status=$1, updated_at=now() WHERE id=$2`, to, id); err != nil {
		return Bet{}, err
	}
	if err = tx.Commit(); err != nil {
		return Bet{}, err
	}
	return p.Get(ctx, id)
}
