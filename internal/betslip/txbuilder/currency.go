package txbuilder

import "fmt"

// Currency identifica o ativo fungível usado para escrow da aposta
type Currency string

const (
	// SUI é o ativo nativo: o gás sai do mesmo saldo, sem coin object
	// de origem explícito
	SUI Currency = "SUI"
	// USDB é o token não-nativo: exige um coin object de origem
	USDB Currency = "USDB"
)

// UnitScale é o fator fixo de conversão: 1e9 unidades-base por token
const UnitScale = 1_000_000_000

// Spec descreve os limites e o tipo on-chain de cada moeda suportada
type Spec struct {
	Currency           Currency
	CoinType           string // tipo Move totalmente qualificado
	MinStake           float64
	MaxStake           float64
	RequiresSourceCoin bool
}

// DefaultRegistry retorna as moedas suportadas com os limites padrão.
// Limites são por moeda e checados antes de qualquer chamada de rede.
func DefaultRegistry() map[Currency]Spec {
	return map[Currency]Spec{
		SUI: {
			Currency: SUI,
			CoinType: "0x2::sui::SUI",
			MinStake: 0.02,
			MaxStake: 15,
		},
		USDB: {
			Currency:           USDB,
			CoinType:           "0xb::usdb::USDB",
			MinStake:           1,
			MaxStake:           5000,
			RequiresSourceCoin: true,
		},
	}
}

func (s Spec) String() string {
	return fmt.Sprintf("%s[%.2f..%.2f]", s.Currency, s.MinStake, s.MaxStake)
}
