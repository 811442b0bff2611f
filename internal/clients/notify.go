package clients

import (
	"context"
	"time"
)

// Notifier fans out "a big table is forming" hints to users outside the
// queue. Fire-and-forget from the core's point of view.
type Notifier interface {
	BigTableAvailable(ctx context.Context, tableTypeID string, joinFee int64) error
}

type HTTPNotifier struct {
	c httpClient
}

func NewHTTPNotifier(baseURL string, timeout time.Duration) *HTTPNotifier {
	return &HTTPNotifier{c: newHTTPClient(baseURL, timeout)}
}

func (n *HTTPNotifier) BigTableAvailable(ctx context.Context, tableTypeID string, joinFee int64) error {
	return n.c.postJSON(ctx, "/v1/big-table", map[string]any{
		"tableTypeId": tableTypeID,
		"joinFee":     joinFee,
	}, nil)
}
