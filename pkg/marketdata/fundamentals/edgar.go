// Package fundamentals fetches annual company fundamentals from SEC EDGAR XBRL company facts.
// API Documentation: https://www.sec.gov/edgar/sec-api-documentation
package fundamentals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ingest/internal/logger"
	"github.com/rxtech-lab/argo-ingest/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// SEC EDGAR API endpoints
	DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"
	DefaultFactsURL   = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"

	// DefaultRequestsPerSecond is the SEC fair-access limit.
	DefaultRequestsPerSecond = 10
)

// Source fetches the fundamentals of one ticker.
type Source interface {
	Fetch(ctx context.Context, ticker string) (Record, error)
}

// Config configures an EDGARClient. UserAgent is mandatory per SEC policy
// and should name the requester and a contact address.
type Config struct {
	UserAgent         string
	RequestsPerSecond float64
	TickersURL        string
	FactsURL          string
	HTTPClient        *http.Client
	Logger            *logger.Logger
}

// EDGARClient handles SEC EDGAR API requests. It is safe for concurrent use;
// all requests share one rate limiter.
type EDGARClient struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger

	mu   sync.Mutex
	ciks map[string]string
}

// NewEDGARClient creates a new SEC EDGAR API client. Empty fields of config take their defaults.
func NewEDGARClient(config Config) (*EDGARClient, error) {
	if strings.TrimSpace(config.UserAgent) == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "SEC EDGAR requires a User-Agent")
	}

	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultRequestsPerSecond
	}

	if config.TickersURL == "" {
		config.TickersURL = DefaultTickersURL
	}

	if config.FactsURL == "" {
		config.FactsURL = DefaultFactsURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	log := config.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &EDGARClient{
		config:     config,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		logger:     log,
		ciks:       nil,
	}, nil
}

// Fetch resolves the ticker to a CIK and extracts the latest annual figures from its company facts.
// Concepts the company does not report are left empty.
func (c *EDGARClient) Fetch(ctx context.Context, ticker string) (Record, error) {
	cik, err := c.LookupCIK(ctx, ticker)
	if err != nil {
		return Record{}, err
	}

	var facts companyFacts
	if err := c.getJSON(ctx, fmt.Sprintf(c.config.FactsURL, cik), &facts); err != nil {
		return Record{}, errors.Wrapf(errors.ErrCodeFundamentalsFetchFailed, err, "failed to fetch company facts for %s", ticker)
	}

	record := facts.record(ticker, cik)

	c.logger.Debug("Fetched fundamentals",
		zap.String("ticker", ticker),
		zap.String("cik", cik),
		zap.Int("concepts", record.conceptCount()))

	return record, nil
}

// LookupCIK returns the zero-padded 10 digit CIK of ticker.
// The ticker mapping is downloaded once and cached.
func (c *EDGARClient) LookupCIK(ctx context.Context, ticker string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ciks == nil {
		var mapping map[string]struct {
			CIK    int64  `json:"cik_str"`
			Ticker string `json:"ticker"`
			Title  string `json:"title"`
		}

		if err := c.getJSON(ctx, c.config.TickersURL, &mapping); err != nil {
			return "", errors.Wrap(errors.ErrCodeFundamentalsFetchFailed, "failed to fetch ticker mapping", err)
		}

		c.ciks = make(map[string]string, len(mapping))
		for _, entry := range mapping {
			c.ciks[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIK)
		}

		c.logger.Debug("Loaded ticker mapping", zap.Int("tickers", len(c.ciks)))
	}

	cik, ok := c.ciks[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return "", errors.Newf(errors.ErrCodeTickerNotFound, "ticker %s not found in SEC mapping", ticker)
	}

	return cik, nil
}

func (c *EDGARClient) getJSON(ctx context.Context, url string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// SEC requires User-Agent header
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("SEC API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SEC API returned status %d for %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to parse SEC response: %w", err)
	}

	return nil
}

// companyFacts is the subset of the companyfacts response we read.
type companyFacts struct {
	CIK        int64                      `json:"cik"`
	EntityName string                     `json:"entityName"`
	Facts      map[string]map[string]fact `json:"facts"`
}

type fact struct {
	Label string                 `json:"label"`
	Units map[string][]factEntry `json:"units"`
}

type factEntry struct {
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
}

// latestAnnual returns the most recent full-year 10-K value of the first concept that has one.
func (f companyFacts) latestAnnual(unit string, concepts ...string) optional.Option[factEntry] {
	gaap := f.Facts["us-gaap"]

	for _, concept := range concepts {
		var best optional.Option[factEntry]

		for _, entry := range gaap[concept].Units[unit] {
			if entry.FP != "FY" || !strings.HasPrefix(entry.Form, "10-K") {
				continue
			}

			if best.IsNone() || later(entry, best.Unwrap()) {
				best = optional.Some(entry)
			}
		}

		if best.IsSome() {
			return best
		}
	}

	return optional.None[factEntry]()
}

func later(a, b factEntry) bool {
	if a.End != b.End {
		return a.End > b.End
	}

	return a.Filed > b.Filed
}

func (f companyFacts) record(ticker, cik string) Record {
	r := Record{
		Ticker:     strings.ToUpper(ticker),
		CIK:        cik,
		EntityName: f.EntityName,
	}

	concepts := []struct {
		target   *optional.Option[float64]
		unit     string
		concepts []string
	}{
		{&r.Revenue, "USD", []string{"Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet"}},
		{&r.NetIncome, "USD", []string{"NetIncomeLoss"}},
		{&r.TotalAssets, "USD", []string{"Assets"}},
		{&r.TotalLiabilities, "USD", []string{"Liabilities"}},
		{&r.StockholdersEquity, "USD", []string{"StockholdersEquity"}},
		{&r.EPSBasic, "USD/shares", []string{"EarningsPerShareBasic"}},
	}

	for _, c := range concepts {
		entry := f.latestAnnual(c.unit, c.concepts...)
		if entry.IsNone() {
			*c.target = optional.None[float64]()

			continue
		}

		e := entry.Unwrap()
		*c.target = optional.Some(e.Val)

		if r.PeriodEnd.IsNone() || e.End > r.PeriodEnd.Unwrap() {
			r.PeriodEnd = optional.Some(e.End)
			r.FiscalYear = optional.Some(float64(e.FY))
		}
	}

	return r
}
