package request

type GrantCreditsRequest struct {
	Amount int    `json:"amount" validate:"gt=0"`
	Reason string `json:"reason" validate:"required,max=500"`
}
