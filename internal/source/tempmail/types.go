package tempmail

import "github.com/nhle/tempmail/internal/model"

// Response status values used by the backend envelope.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// statusResponse is the envelope every backend response carries.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (r statusResponse) envelope() statusResponse { return r }

// enveloped is implemented by every response type so do can check status.
type enveloped interface {
	envelope() statusResponse
}

// newMailboxResponse is returned by GET /api/email/new.
type newMailboxResponse struct {
	statusResponse
	Email string `json:"email"`
}

// messagesResponse is returned by GET /api/email/{address}/messages.
type messagesResponse struct {
	statusResponse
	Email    string          `json:"email"`
	Count    int             `json:"count"`
	Messages []model.Message `json:"messages"`
}

// listResponse is returned by GET /api/email/list.
type listResponse struct {
	statusResponse
	Count  int      `json:"count"`
	Emails []string `json:"emails"`
}
