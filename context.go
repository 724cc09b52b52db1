package httplog

import (
	"context"

	"cdr.dev/slog"
	"github.com/google/uuid"
)

type exchangeIDContextKey struct{}

// WithExchangeID tags ctx with the id shared by the request and response
// lines of one exchange. [Transport] does this for every round trip.
func WithExchangeID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, exchangeIDContextKey{}, id)
}

// ExchangeIDFromContext returns the exchange id set by WithExchangeID.
func ExchangeIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(exchangeIDContextKey{}).(uuid.UUID)
	return id, ok
}

// exchangeFields returns the exchange_id field when ctx carries an id. Lines
// logged outside a Transport have none, since nothing links them.
func exchangeFields(ctx context.Context) []any {
	id, ok := ExchangeIDFromContext(ctx)
	if !ok {
		return nil
	}
	return []any{slog.F("exchange_id", id)}
}
