package chain

// ObjectChange é uma mudança de objeto reportada nos efeitos da
// transação. CreatedObjects viram registros de aposta on-chain.
type ObjectChange struct {
	Type       string `json:"type"` // "created" | "mutated" | "deleted"
	ObjectType string `json:"objectType"`
	ObjectID   string `json:"objectId"`
}

// TxEffects resume o resultado de execução reportado pela chain
type TxEffects struct {
	Status string `json:"status"` // "success" | "failure"
	Error  string `json:"error,omitempty"`
}

// TxResult é a resposta de waitForTransaction
type TxResult struct {
	Digest        string         `json:"digest"`
	ObjectChanges []ObjectChange `json:"objectChanges"`
	Effects       TxEffects      `json:"effects"`
}

// Coin é um objeto fungível do dono, candidato a coin de origem
type Coin struct {
	ObjectID string `json:"objectId"`
	Balance  uint64 `json:"balance"`
}
