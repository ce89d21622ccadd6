package broker

import (
	"context"
	"log/slog"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrAuthentication marks a rejected key pair for the selected mode.
	ErrAuthentication = errors.New("alpaca authentication failed")
	// ErrOrderSubmission marks a brokerage-side order rejection. The
	// wrapped message carries the rejection reason verbatim.
	ErrOrderSubmission = errors.New("order submission failed")
)

type OrderAck struct {
	ID            string
	ClientOrderID string
	Status        string
}

type Client struct {
	api *alpaca.Client
}

func New(apiKey, apiSecret, baseURL string) *Client {
	opts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}
	return &Client{api: alpaca.NewClient(opts)}
}

// Position returns the held quantity for symbol. A 404 from the API
// means no open position and is reported as flat, not as an error.
func (c *Client) Position(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	pos, err := c.api.GetPosition(symbol)
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			slog.Info("no open position", "symbol", symbol)
			return decimal.Zero, false, nil
		}
		slog.Error("fetch position failed", "symbol", symbol, "error", err)
		return decimal.Zero, false, classify(err, "get position %s", symbol)
	}

	qty := pos.Qty
	slog.Info("position fetched", "symbol", symbol, "qty", qty)
	return qty, qty.IsPositive(), nil
}

// BuyingPower returns the account's non-marginable buying power, the
// cash-only purchasing capacity excluding margin credit.
func (c *Client) BuyingPower(ctx context.Context) (decimal.Decimal, error) {
	acct, err := c.api.GetAccount()
	if err != nil {
		slog.Error("fetch account failed", "error", err)
		return decimal.Zero, classify(err, "get account")
	}
	bp := acct.NonMarginBuyingPower
	slog.Info("account fetched", "non_marginable_buying_power", bp)
	return bp, nil
}

func (c *Client) SubmitMarketOrder(ctx context.Context, symbol string, side alpaca.Side, qty decimal.Decimal) (OrderAck, error) {
	req := alpaca.PlaceOrderRequest{
		Symbol:      symbol,
		Qty:         &qty,
		Side:        side,
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	}

	order, err := c.api.PlaceOrder(req)
	if err != nil {
		slog.Error("place order failed", "side", side, "symbol", symbol, "qty", qty, "error", err)
		if isAuthError(err) {
			return OrderAck{}, errors.Wrapf(ErrAuthentication, "place order: %v", err)
		}
		return OrderAck{}, errors.Wrapf(ErrOrderSubmission, "%s %s qty=%s: %v", side, symbol, qty, err)
	}

	slog.Info("place order success", "order_id", order.ID, "side", side, "symbol", symbol, "qty", qty, "status", order.Status)
	return OrderAck{
		ID:            order.ID,
		ClientOrderID: order.ClientOrderID,
		Status:        order.Status,
	}, nil
}

func classify(err error, format string, args ...interface{}) error {
	if isAuthError(err) {
		return errors.Wrapf(ErrAuthentication, format+": %v", append(args, err)...)
	}
	return errors.Wrapf(err, format, args...)
}

func isAuthError(err error) bool {
	var apiErr *alpaca.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
}
