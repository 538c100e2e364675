// Package binance implementa el collector de velas contra la API pública de
// Binance. Es el colaborador externo del core: el backtest nunca importa este
// paquete, solo cmd/collector.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/volarb/internal/domain"
)

const (
	defaultBaseURL = "https://api.binance.com"

	// Binance permite 1200 weight/min en /api/v3; nos quedamos muy por debajo.
	requestsPerSec = 10

	maxPageLimit  = 1000
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client de Binance con rate limiting y retries.
type Client struct {
	http     *http.Client
	baseURL  string
	interval string
	limiter  *rate.Limiter
}

// NewClient crea un Client. Con baseURL vacío usa la API de producción;
// con interval vacío usa velas de 15 minutos.
func NewClient(baseURL, interval string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if interval == "" {
		interval = "15m"
	}
	return &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		baseURL:  baseURL,
		interval: interval,
		limiter:  rate.NewLimiter(requestsPerSec, 5),
	}
}

// FetchCandles devuelve hasta limit velas del símbolo que terminan en endTime,
// de la más antigua a la más reciente.
func (c *Client) FetchCandles(ctx context.Context, symbol string, limit int, endTime time.Time) ([]domain.Candle, error) {
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", c.interval)
	q.Set("limit", strconv.Itoa(limit))
	if !endTime.IsZero() {
		q.Set("endTime", strconv.FormatInt(endTime.UnixMilli(), 10))
	}
	reqURL := c.baseURL + "/api/v3/klines?" + q.Encode()

	var raw [][]any
	if err := c.get(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("binance.FetchCandles %s: %w", symbol, err)
	}

	candles := make([]domain.Candle, 0, len(raw))
	for _, k := range raw {
		candle, err := parseKline(symbol, k)
		if err != nil {
			return nil, fmt.Errorf("binance.FetchCandles %s: %w", symbol, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// CollectHistorical descarga days días de velas paginando hacia atrás desde
// ahora, y las devuelve en orden cronológico.
func (c *Client) CollectHistorical(ctx context.Context, symbol string, days int) ([]domain.Candle, error) {
	total := days * candlesPerDay(c.interval)

	var pages [][]domain.Candle
	collected := 0
	endTime := time.Now()

	for collected < total {
		limit := total - collected
		if limit > maxPageLimit {
			limit = maxPageLimit
		}

		page, err := c.FetchCandles(ctx, symbol, limit, endTime)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		pages = append(pages, page)
		collected += len(page)
		// La siguiente página termina justo antes de la vela más antigua.
		endTime = time.Unix(page[0].Timestamp, 0).Add(-time.Millisecond)

		slog.Debug("collected kline page", "symbol", symbol, "page_size", len(page), "total", collected)
	}

	// Las páginas llegaron de la más reciente a la más antigua.
	var candles []domain.Candle
	for i := len(pages) - 1; i >= 0; i-- {
		candles = append(candles, pages[i]...)
	}
	return candles, nil
}

// parseKline mapea el array crudo de Binance a una Candle.
// Formato: [openTimeMs, open, high, low, close, volume, closeTimeMs,
// quoteVolume, trades, ...] — precios y volúmenes llegan como strings.
func parseKline(symbol string, k []any) (domain.Candle, error) {
	if len(k) < 9 {
		return domain.Candle{}, fmt.Errorf("kline has %d fields, want >= 9", len(k))
	}

	openTimeMs, err := asInt64(k[0])
	if err != nil {
		return domain.Candle{}, fmt.Errorf("open time: %w", err)
	}
	trades, err := asInt64(k[8])
	if err != nil {
		return domain.Candle{}, fmt.Errorf("trade count: %w", err)
	}

	prices := make([]float64, 5)
	for i, idx := range []int{1, 2, 3, 4, 5} {
		v, err := asFloat(k[idx])
		if err != nil {
			return domain.Candle{}, fmt.Errorf("field %d: %w", idx, err)
		}
		prices[i] = v
	}

	ts := openTimeMs / 1000
	return domain.Candle{
		Timestamp: ts,
		Datetime:  time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05"),
		Symbol:    symbol,
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    prices[4],
		Trades:    int(trades),
	}, nil
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseFloat(x, 64)
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func asInt64(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Int64()
	case float64:
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

// get hace un GET con rate limiting y retries con backoff exponencial.
func (c *Client) get(ctx context.Context, reqURL string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by Binance", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		err = dec.Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// candlesPerDay devuelve cuántas velas del intervalo caben en un día.
func candlesPerDay(interval string) int {
	switch interval {
	case "1m":
		return 1440
	case "5m":
		return 288
	case "15m":
		return 96
	case "1h":
		return 24
	default:
		return 96
	}
}
