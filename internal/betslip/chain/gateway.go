package chain

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/txbuilder"
	"github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/metrics"
)

// State é o estado da tentativa de submissão
type State string

const (
	StateBuilt             State = "BUILT"
	StateAwaitingSignature State = "AWAITING_SIGNATURE"
	StateBroadcast         State = "BROADCAST"
	StateConfirming        State = "CONFIRMING"
	StateFinal             State = "FINAL"
	StateFailed            State = "FAILED"
)

// Result é o desfecho da submissão. Com TxDigest preenchido a
// transação é irreversivelmente pendente-ou-final on-chain: retentativa
// nunca re-submete, só a escrita off-chain pode ser repetida.
type Result struct {
	Success         bool
	TxDigest        string
	CreatedObjectID string
	State           State
	Unconfirmed     bool // digest válido, desfecho desconhecido (timeout)
	Err             *SubmitError
}

// Gateway conduz uma transação montada por assinatura, broadcast e
// confirmação de finalidade
type Gateway struct {
	log            *zap.Logger
	signer         Signer
	rpc            RPC
	confirmTimeout time.Duration
	// nome do tipo on-chain do registro de aposta, casado por sufixo
	// nos objectChanges
	betObjectType string
}

func NewGateway(log *zap.Logger, signer Signer, rpc RPC, confirmTimeout time.Duration, betObjectType string) *Gateway {
	return &Gateway{
		log:            log,
		signer:         signer,
		rpc:            rpc,
		confirmTimeout: confirmTimeout,
		betObjectType:  betObjectType,
	}
}

// Submit executa a máquina de estados:
// Built → AwaitingSignature → Broadcast → Confirming → Final | Failed.
// Falha de assinatura não foi transmitida: o chamador pode reconstruir
// do zero. Timeout de confirmação NÃO é falha (Unconfirmed=true).
func (g *Gateway) Submit(ctx context.Context, tx *txbuilder.PendingTransaction) Result {
	// AwaitingSignature: pode ser rejeitada pelo usuário ou pela
	// carteira; sem retentativa automática
	digest, err := g.signer.SignAndExecute(ctx, tx)
	if err != nil {
		serr := Classify(err)
		g.log.Warn("sign and execute failed",
			zap.String("kind", string(serr.Kind)),
			zap.String("raw", serr.Raw),
		)
		metrics.BetSubmissions.WithLabelValues("failed").Inc()
		return Result{State: StateFailed, Err: serr}
	}

	// Broadcast: daqui em diante o digest é o identificador único da
	// aposta; nada mais pode re-submeter este payload
	g.log.Info("transaction broadcast", zap.String("digest", digest))

	confirmCtx, cancel := context.WithTimeout(ctx, g.confirmTimeout)
	defer cancel()

	start := time.Now()
	txr, err := g.rpc.WaitForTransaction(confirmCtx, digest)
	if err != nil {
		if err == ErrConfirmTimeout || confirmCtx.Err() != nil {
			// desfecho desconhecido; a transação ainda pode aterrissar
			g.log.Warn("confirmation timeout", zap.String("digest", digest))
			metrics.BetSubmissions.WithLabelValues("timeout").Inc()
			return Result{State: StateConfirming, TxDigest: digest, Unconfirmed: true}
		}
		serr := Classify(err)
		metrics.BetSubmissions.WithLabelValues("failed").Inc()
		return Result{State: StateFailed, TxDigest: digest, Err: serr}
	}
	metrics.ChainConfirmSeconds.Observe(time.Since(start).Seconds())

	// Final: a transação executou, mas pode ter revertido
	if strings.EqualFold(txr.Effects.Status, "failure") {
		serr := Classify(&rpcError{Code: 0, Message: txr.Effects.Error})
		g.log.Warn("transaction reverted",
			zap.String("digest", digest),
			zap.String("error", txr.Effects.Error),
		)
		metrics.BetSubmissions.WithLabelValues("failed").Inc()
		return Result{State: StateFailed, TxDigest: digest, Err: serr}
	}

	// extração do objeto criado é melhor-esforço: sem match o sucesso
	// permanece
	created := g.findCreatedBetObject(txr.ObjectChanges)
	if created == "" {
		g.log.Warn("bet object not found in effects", zap.String("digest", digest))
	}

	metrics.BetSubmissions.WithLabelValues("final").Inc()
	return Result{
		Success:         true,
		State:           StateFinal,
		TxDigest:        digest,
		CreatedObjectID: created,
	}
}

func (g *Gateway) findCreatedBetObject(changes []ObjectChange) string {
	for _, ch := range changes {
		if ch.Type != "created" {
			continue
		}
		if strings.HasSuffix(ch.ObjectType, g.betObjectType) {
			return ch.ObjectID
		}
	}
	return ""
}
