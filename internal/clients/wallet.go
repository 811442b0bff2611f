package clients

import (
	"context"
	"errors"
	"time"
)

var ErrInsufficientFunds = errors.New("insufficient_funds")

// Wallet is the money side. Debits and credits are keyed by table id and
// assumed idempotent per table on the provider side; credit failures on
// game end are reconciled out-of-band, never by replaying gameplay.
type Wallet interface {
	Balance(ctx context.Context, userID string) (int64, error)
	DebitJoinFee(ctx context.Context, tableID string, userIDs []string, amount int64) error
	CreditWinnings(ctx context.Context, tableID, userID string, amount int64) error
}

type HTTPWallet struct {
	c httpClient
}

func NewHTTPWallet(baseURL string, timeout time.Duration) *HTTPWallet {
	return &HTTPWallet{c: newHTTPClient(baseURL, timeout)}
}

func (w *HTTPWallet) Balance(ctx context.Context, userID string) (int64, error) {
	var out struct {
		Balance int64 `json:"balance"`
	}
	err := w.c.postJSON(ctx, "/v1/balance", map[string]string{"userId": userID}, &out)
	return out.Balance, err
}

func (w *HTTPWallet) DebitJoinFee(ctx context.Context, tableID string, userIDs []string, amount int64) error {
	var se *StatusError
	err := w.c.postJSON(ctx, "/v1/debit", map[string]any{
		"tableId": tableID,
		"userIds": userIDs,
		"amount":  amount,
	}, nil)
	if errors.As(err, &se) && se.Code == 402 {
		return ErrInsufficientFunds
	}
	return err
}

func (w *HTTPWallet) CreditWinnings(ctx context.Context, tableID, userID string, amount int64) error {
	return w.c.postJSON(ctx, "/v1/credit", map[string]any{
		"tableId": tableID,
		"userId":  userID,
		"amount":  amount,
	}, nil)
}
