package account

import (
	"context"

	"github.com/artmorph/api/internal/contextx"
	"github.com/artmorph/api/internal/httpx"
)

// --- DTOs ---

// ProfileResponse is the DTO for the authenticated account's own record.
type ProfileResponse struct {
	Body struct {
		Account accountBody `json:"account"`
	}
}

// --- Handlers ---

// GetProfileHandler retrieves the account of the currently authenticated caller.
// It relies on the authentication middleware to have set the account ID in the
// context.
func (h *Handler) GetProfileHandler(ctx context.Context, input *struct{}) (*ProfileResponse, error) {
	accountID, ok := ctx.Value(contextx.AccountIDKey).(string)
	if !ok || accountID == "" {
		h.logger.Error("account ID not found in context")
		return nil, httpx.ToProblem(ctx, ErrUnauthorized)
	}

	acct, err := h.service.GetProfile(ctx, accountID)
	if err != nil {
		h.logger.Warn("get profile failed", "account_id", accountID, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ProfileResponse{}
	resp.Body.Account = toAccountBody(acct)
	return resp, nil
}
