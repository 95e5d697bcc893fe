package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FailureKind é a taxonomia de falha de submissão
type FailureKind string

const (
	FailUserRejected      FailureKind = "USER_REJECTED"
	FailSignerError       FailureKind = "SIGNER_ERROR"
	FailInsufficientFunds FailureKind = "INSUFFICIENT_FUNDS"
	FailNetworkError      FailureKind = "NETWORK_ERROR"
	FailUnknownChain      FailureKind = "UNKNOWN_CHAIN_ERROR"
)

// SubmitError carrega a categoria e a mensagem crua para diagnóstico
type SubmitError struct {
	Kind FailureKind
	Raw  string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Raw)
}

// ErrConfirmTimeout indica digest válido com desfecho desconhecido.
// Não é falha: a transação ainda pode aterrissar; o chamador deve
// exibir "não confirmada, verifique depois".
var ErrConfirmTimeout = errors.New("confirmation timed out; transaction may still land")

// Classify categoriza um erro por casamento de padrão no texto.
// Heurística assumida: prefira códigos estruturados quando o cliente da
// chain os expuser; o texto é o último recurso.
func Classify(err error) *SubmitError {
	raw := err.Error()
	lower := strings.ToLower(raw)

	switch {
	case strings.Contains(lower, "rejected") && (strings.Contains(lower, "user") || strings.Contains(lower, "request")):
		return &SubmitError{Kind: FailUserRejected, Raw: raw}
	case strings.Contains(lower, "insufficient") && (strings.Contains(lower, "funds") || strings.Contains(lower, "balance") || strings.Contains(lower, "gas")):
		return &SubmitError{Kind: FailInsufficientFunds, Raw: raw}
	case strings.Contains(lower, "wallet") || strings.Contains(lower, "signer") || strings.Contains(lower, "signature"):
		return &SubmitError{Kind: FailSignerError, Raw: raw}
	case errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(lower, "timeout") || strings.Contains(lower, "connection") || strings.Contains(lower, "network"):
		return &SubmitError{Kind: FailNetworkError, Raw: raw}
	default:
		return &SubmitError{Kind: FailUnknownChain, Raw: raw}
	}
}
