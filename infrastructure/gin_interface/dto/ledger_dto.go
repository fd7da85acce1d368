package dto

type BalanceResponse struct {
	UserID    string `json:"user_id"`
	Available int64  `json:"available"`
}

type GrantTokensRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Source string `json:"source" binding:"required"`
	Reason string `json:"reason"`
}
