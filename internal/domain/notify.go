package domain

const (
	NotifyTypeSuccess = "success"
	NotifyTypeError   = "error"

	notifySuccessMessage = "发送成功"
)

// NotifyResult is the outcome of forwarding a message, reported to the
// client as-is.
type NotifyResult struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NotifySuccess() NotifyResult {
	return NotifyResult{Type: NotifyTypeSuccess, Message: notifySuccessMessage}
}

func NotifyFailure(detail string) NotifyResult {
	return NotifyResult{Type: NotifyTypeError, Message: detail}
}

func (r NotifyResult) OK() bool {
	return r.Type == NotifyTypeSuccess
}
