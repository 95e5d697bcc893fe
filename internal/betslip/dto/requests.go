package dto

// AddSelectionRequest é o payload de POST /slip/selections
type AddSelectionRequest struct {
	ID            string  `json:"id"`
	EventID       string  `json:"eventId"`
	EventName     string  `json:"eventName"`
	MarketID      string  `json:"marketId"`
	Market        string  `json:"market"` // ex: "1X2"
	SelectionID   string  `json:"selectionId"`
	SelectionName string  `json:"selectionName"`
	Odds          float64 `json:"odds"`
	Stake         float64 `json:"stake"`
	IsLive        bool    `json:"isLive"`
	MatchMinute   *int    `json:"matchMinute,omitempty"`
	HomeTeam      string  `json:"homeTeam,omitempty"`
	AwayTeam      string  `json:"awayTeam,omitempty"`
	UniqueID      string  `json:"uniqueId,omitempty"`
}

// UpdateStakeRequest é o payload de PUT /slip/selections/{id}/stake
type UpdateStakeRequest struct {
	Stake float64 `json:"stake"`
}

// PlaceSingleRequest é o payload de POST /slip/place
type PlaceSingleRequest struct {
	WalletAddress string  `json:"walletAddress"`
	Currency      string  `json:"currency"`       // "SUI" | "USDB"
	PaymentMethod string  `json:"payment_method"` // "wallet" | "platform-balance" | "free-bet"
	SelectionID   string  `json:"selectionId"`
	Stake         float64 `json:"stake,omitempty"` // sobrepõe o stake da seleção quando > 0
}

// PlaceParlayRequest é o payload de POST /slip/place-parlay
type PlaceParlayRequest struct {
	WalletAddress string  `json:"walletAddress"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`
	TotalStake    float64 `json:"total_stake"`
}
