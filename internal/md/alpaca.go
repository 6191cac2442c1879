package md

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

type AlpacaOptions struct {
	Symbol     string
	Feed       string
	Adjustment string
	Start      time.Time
	End        time.Time
}

// AlpacaSource fetches historical daily bars from the Alpaca market data API.
type AlpacaSource struct {
	client barsClient
	opts   AlpacaOptions
}

func NewAlpacaSource(apiKey, apiSecret string, opts AlpacaOptions) *AlpacaSource {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
	return &AlpacaSource{client: client, opts: opts}
}

func (s *AlpacaSource) Bars(ctx context.Context) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: parseAdjustment(s.opts.Adjustment),
		Start:      s.opts.Start,
		End:        s.opts.End,
		Feed:       parseFeed(s.opts.Feed),
	}

	raw, err := s.client.GetBars(s.opts.Symbol, req)
	if err != nil {
		slog.Error("fetch bars failed", "symbol", s.opts.Symbol, "feed", s.opts.Feed, "error", err)
		return nil, fmt.Errorf("get bars for %s: %w", s.opts.Symbol, err)
	}

	bars := make([]Bar, 0, len(raw))
	for _, bar := range raw {
		bars = append(bars, Bar{
			Symbol:    s.opts.Symbol,
			Timestamp: bar.Timestamp.UTC(),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    float64(bar.Volume),
		})
	}
	if err := checkOrder(bars); err != nil {
		return nil, err
	}

	slog.Info("price series loaded", "source", "alpaca", "symbol", s.opts.Symbol, "feed", s.opts.Feed, "bars", len(bars))
	return bars, nil
}

func parseFeed(feed string) marketdata.Feed {
	switch feed {
	case "iex":
		return marketdata.IEX
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}

func parseAdjustment(adjustment string) marketdata.Adjustment {
	switch adjustment {
	case "split":
		return marketdata.Split
	case "dividend":
		return marketdata.Dividend
	case "all":
		return marketdata.All
	default:
		return marketdata.Raw
	}
}
