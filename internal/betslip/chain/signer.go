package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tsoliveira/onchain-bet-platform-poc/internal/betslip/txbuilder"
)

// Signer entrega a transação montada ao assinador externo (carteira) e
// devolve o digest após broadcast. Rejeição do usuário ou falha da
// carteira chegam como erro com texto livre, classificado pela
// taxonomia.
type Signer interface {
	SignAndExecute(ctx context.Context, tx *txbuilder.PendingTransaction) (digest string, err error)
}

// HTTPSigner fala com o assinador por HTTP (simulador local ou bridge
// da extensão de carteira)
type HTTPSigner struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPSigner(base string) *HTTPSigner {
	return &HTTPSigner{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 60 * time.Second}, // usuário pode demorar para aprovar
	}
}

type signResponse struct {
	Digest  string `json:"digest"`
	Message string `json:"message,omitempty"`
}

func (s *HTTPSigner) SignAndExecute(ctx context.Context, tx *txbuilder.PendingTransaction) (string, error) {
	body, _ := json.Marshal(tx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/signAndExecute", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var out signResponse
	if jerr := json.NewDecoder(res.Body).Decode(&out); jerr != nil {
		return "", fmt.Errorf("signer response: %w", jerr)
	}
	if res.StatusCode >= 300 || out.Digest == "" {
		if out.Message == "" {
			out.Message = fmt.Sprintf("signer http %d", res.StatusCode)
		}
		return "", fmt.Errorf("%s", out.Message)
	}
	return out.Digest, nil
}
