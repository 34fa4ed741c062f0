package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPollInterval = 30 * time.Second // Refresh spot prices every 30 seconds
	MinPollInterval     = 10 * time.Second // Minimum interval to avoid rate limiting
)

// FeedResponse is the wire format of the quotes endpoint
type FeedResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string]struct {
		Quote struct {
			USD struct {
				Price float64 `json:"price"`
			} `json:"USD"`
		} `json:"quote"`
	} `json:"data"`
}

// API fetches the USD spot price of a token symbol
type API interface {
	TokenPrice(symbol string) (float64, error)
}

// FeedAPI is an HTTP client for a CoinMarketCap-compatible quotes endpoint
type FeedAPI struct {
	url    string
	apiKey string
	client *http.Client
}

func NewFeedAPI(url string, apiKey string) *FeedAPI {
	return &FeedAPI{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// TokenPrice fetches the current USD price for a single symbol
func (c *FeedAPI) TokenPrice(symbol string) (float64, error) {
	url := fmt.Sprintf("%s/v1/cryptocurrency/quotes/latest?symbol=%s", c.url, symbol)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP request failed with status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	var feedResponse FeedResponse
	err = json.Unmarshal(body, &feedResponse)
	if err != nil {
		return 0, err
	}

	if feedResponse.Status.ErrorCode != 0 {
		return 0, fmt.Errorf("API Error: %d - %s", feedResponse.Status.ErrorCode, feedResponse.Status.ErrorMessage)
	}

	return feedResponse.Data[symbol].Quote.USD.Price, nil
}

// Oracle keeps a short-lived cache of spot prices for a fixed symbol set,
// refreshed by a background poller. A price that is missing, non-positive or
// NaN is never cached, so consumers see it as unavailable rather than stale.
type Oracle struct {
	api      API
	cache    *ttlcache.Cache[string, float64]
	symbols  []string
	interval time.Duration

	running  bool
	stopChan chan struct{}
	mu       sync.Mutex
}

// NewOracle creates an oracle polling the given symbols at the given interval
func NewOracle(api API, symbols []string, interval time.Duration) *Oracle {
	if interval < MinPollInterval {
		interval = MinPollInterval
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, float64](3 * interval),
	)
	return &Oracle{
		api:      api,
		cache:    cache,
		symbols:  symbols,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background refresh loop. The first refresh runs
// synchronously so prices are available as soon as Start returns.
func (o *Oracle) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("oracle is already running")
	}
	o.running = true
	// a fresh channel each start so the oracle can be restarted after Stop
	o.stopChan = make(chan struct{})
	stop := o.stopChan
	o.mu.Unlock()

	o.refresh()

	go func() {
		ticker := time.NewTicker(o.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				o.refresh()
			case <-stop:
				o.cache.Stop()
				return
			case <-ctx.Done():
				o.cache.Stop()
				return
			}
		}
	}()
	return nil
}

// Stop halts the background refresh loop
func (o *Oracle) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return
	}
	o.running = false
	close(o.stopChan)
}

// Spot returns the cached USD price for symbol. On a cache miss it attempts
// one synchronous fetch before reporting the price unavailable.
func (o *Oracle) Spot(symbol string) (float64, bool) {
	if item := o.cache.Get(symbol); item != nil {
		return item.Value(), true
	}
	spot, err := o.fetch(symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("spot price unavailable")
		return 0, false
	}
	return spot, true
}

func (o *Oracle) refresh() {
	for _, symbol := range o.symbols {
		if _, err := o.fetch(symbol); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("failed to refresh spot price")
		}
	}
}

func (o *Oracle) fetch(symbol string) (float64, error) {
	spot, err := o.api.TokenPrice(symbol)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(spot) || spot <= 0 {
		return 0, fmt.Errorf("feed returned unusable price %f for %s", spot, symbol)
	}
	o.cache.Set(symbol, spot, ttlcache.DefaultTTL)
	return spot, nil
}
