package ledger

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"kvitt/internal/services"
)

// ExpenseRequest creates one expense record from a completed draft.
type ExpenseRequest struct {
	CampusID      string          `json:"campusId"`
	DepartmentID  string          `json:"departmentId"`
	BankAccount   string          `json:"bankAccount"`
	Description   string          `json:"description"`
	AttachmentIDs []string        `json:"attachmentIds"`
	Total         decimal.Decimal `json:"total"`
}

type expenseResponse struct {
	Success bool `json:"success"`
	Expense *struct {
		ID string `json:"id"`
	} `json:"expense"`
	Error string `json:"error"`
}

// CreateExpense records the expense and returns its id.
func (c *Client) CreateExpense(ctx context.Context, req ExpenseRequest) (string, error) {
	var decoded expenseResponse
	if err := c.do(ctx, http.MethodPost, "/expenses", req, &decoded); err != nil {
		return "", err
	}
	if !decoded.Success || decoded.Expense == nil || decoded.Expense.ID == "" {
		message := strings.TrimSpace(decoded.Error)
		if message == "" {
			message = "expense creation failed"
		}
		return "", services.Wrap(services.ErrExternalService, "ledger", "create expense", message, nil)
	}
	return decoded.Expense.ID, nil
}
