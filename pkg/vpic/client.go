// Package vpic provides a client for the NHTSA vPIC VIN decoding API.
package vpic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/inventory-cli/internal/resilience"
)

// DefaultBaseURL is the public vPIC vehicles API.
const DefaultBaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"

// Client decodes VINs.
type Client interface {
	// Decode returns the identity vPIC reports for vin.
	Decode(ctx context.Context, vin string) (*Decoded, error)
}

// Decoded is the vehicle identity returned by DecodeVinValues. Fields the
// API leaves blank stay empty.
type Decoded struct {
	Year      int    `json:"year,omitempty"`
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	Trim      string `json:"trim,omitempty"`
	BodyStyle string `json:"body_style,omitempty"`
	Engine    string `json:"engine,omitempty"`
}

type decodeResponse struct {
	Count   int            `json:"Count"`
	Message string         `json:"Message"`
	Results []decodeResult `json:"Results"`
}

type decodeResult struct {
	ModelYear           string `json:"ModelYear"`
	Make                string `json:"Make"`
	Model               string `json:"Model"`
	Trim                string `json:"Trim"`
	BodyClass           string `json:"BodyClass"`
	EngineConfiguration string `json:"EngineConfiguration"`
	DisplacementL       string `json:"DisplacementL"`
	FuelTypePrimary     string `json:"FuelTypePrimary"`
}

// Option configures the vPIC client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := max(int(rps), 1)
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxRetries sets the number of attempts for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *httpClient) {
		c.retry.Attempts = n
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewClient creates a vPIC client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(5, 5),
		retry:   resilience.NewPolicy("vpic_decode", 3),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Decode(ctx context.Context, vin string) (*Decoded, error) {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	if vin == "" {
		return nil, eris.New("vpic: empty vin")
	}

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*Decoded, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "vpic: rate limit wait")
			}
		}
		return c.decodeOnce(ctx, vin)
	})
}

func (c *httpClient) decodeOnce(ctx context.Context, vin string) (*Decoded, error) {
	endpoint := c.baseURL + "/DecodeVinValues/" + url.PathEscape(vin) + "?format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "vpic: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "vpic: decode request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckStatus("vpic: decode", resp.StatusCode); err != nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, err
	}

	var body decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "vpic: parse response")
	}
	if len(body.Results) == 0 {
		return &Decoded{}, nil
	}
	return body.Results[0].toDecoded(), nil
}

func (r decodeResult) toDecoded() *Decoded {
	year, _ := strconv.Atoi(strings.TrimSpace(r.ModelYear))

	var engine []string
	for _, part := range []string{r.EngineConfiguration, r.DisplacementL, r.FuelTypePrimary} {
		if p := strings.TrimSpace(part); p != "" {
			engine = append(engine, p)
		}
	}

	return &Decoded{
		Year:      year,
		Make:      strings.TrimSpace(r.Make),
		Model:     strings.TrimSpace(r.Model),
		Trim:      strings.TrimSpace(r.Trim),
		BodyStyle: strings.TrimSpace(r.BodyClass),
		Engine:    strings.Join(engine, " "),
	}
}
