package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// SendMessageRequest carries the posted text. A missing field is the
// empty message, which is accepted.
type SendMessageRequest struct {
	Message string `form:"message" json:"message"`
}

type ListMessagesRequest struct {
	Order string `form:"order"`
}

func (req *ListMessagesRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Order, validation.In("asc", "desc")),
	)
}
