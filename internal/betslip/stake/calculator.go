package stake

// Funções puras de cálculo de retorno. Nenhuma validação de entrada é
// feita aqui: quem chama garante stake/odds finitos e positivos.

// PotentialPayout retorna o retorno potencial de uma aposta simples
func PotentialPayout(stake, odds float64) float64 {
	return stake * odds
}

// ParlayOdds retorna a odd combinada de uma múltipla: produto das odds
// de cada perna. Lista vazia retorna 1.0; quem chama exige >= 2 pernas
// antes de montar a múltipla.
func ParlayOdds(legOdds []float64) float64 {
	combined := 1.0
	for _, o := range legOdds {
		combined *= o
	}
	return combined
}

// ParlayPayout retorna o retorno potencial de uma múltipla sobre o
// stake total
func ParlayPayout(totalStake float64, legOdds []float64) float64 {
	return totalStake * ParlayOdds(legOdds)
}
