package ledger

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"kvitt/internal/services"
)

// Attachment is one backend attachment record created from a receipt.
type Attachment struct {
	Date        string          `json:"date"`
	FileID      string          `json:"fileId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	MimeType    string          `json:"mimeType"`
}

type attachmentResponse struct {
	Success    bool `json:"success"`
	Attachment *struct {
		ID string `json:"id"`
	} `json:"attachment"`
	Error string `json:"error"`
}

// CreateAttachment records one receipt attachment and returns its id.
func (c *Client) CreateAttachment(ctx context.Context, att Attachment) (string, error) {
	var decoded attachmentResponse
	if err := c.do(ctx, http.MethodPost, "/attachments", att, &decoded); err != nil {
		return "", err
	}
	if !decoded.Success || decoded.Attachment == nil || decoded.Attachment.ID == "" {
		message := strings.TrimSpace(decoded.Error)
		if message == "" {
			message = "attachment creation failed"
		}
		return "", services.Wrap(services.ErrExternalService, "ledger", "create attachment", message, nil)
	}
	return decoded.Attachment.ID, nil
}

// DeleteAttachment removes a previously created attachment. Used to
// compensate when a later submission step fails.
func (c *Client) DeleteAttachment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/attachments/"+id, nil, nil)
}
