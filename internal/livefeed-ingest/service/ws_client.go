package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	sharedkafka "github.com/tsoliveira/onchain-bet-platform-poc/internal/shared/kafka"
	"github.com/tsoliveira/onchain-bet-platform-poc/pkg/contracts/events"
)

// MinuteSink grava o minuto corrente de uma partida (Redis em produção)
type MinuteSink interface {
	SetMatchMinute(ctx context.Context, eventID string, minute int) error
}

// WSClient consome o feed externo de partidas ao vivo e mantém o
// minuto corrente de cada evento fresco para o gate de janela de
// aposta. Opcionalmente replica cada atualização num tópico Kafka.
type WSClient struct {
	URL    string
	Log    *zap.Logger
	Sink   MinuteSink
	Writer *sharedkafka.Writer // nil desliga a replicação
}

// Start roda o loop de conexão. Desconectou, reconecta com backoff.
func (c *WSClient) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping live feed client")
			return
		default:
			if err := c.connectAndListen(ctx); err != nil {
				c.Log.Warn("connection closed", zap.Error(err))
				time.Sleep(3 * time.Second)
			}
		}
	}
}

func (c *WSClient) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("connected to live feed WS", zap.String("url", c.URL))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			c.Log.Error("read message failed", zap.Error(err))
			return err
		}

		var update events.LiveMinuteUpdate
		if err := json.Unmarshal(message, &update); err != nil {
			c.Log.Warn("invalid message", zap.Error(err))
			continue
		}
		if update.EventID == "" || update.Minute < 0 {
			continue
		}

		if err := c.Sink.SetMatchMinute(ctx, update.EventID, update.Minute); err != nil {
			c.Log.Error("failed to store match minute", zap.Error(err), zap.String("event_id", update.EventID))
			continue
		}

		if c.Writer != nil {
			if err := sharedkafka.WriteJSON(ctx, c.Writer, update.EventID, message); err != nil {
				c.Log.Error("failed to publish to Kafka", zap.Error(err))
			}
		}
	}
}
