package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/beevik/etree"
	"github.com/patrickmn/go-cache"
	"github.com/username/istisna/backend/src/logger"
	"github.com/username/istisna/backend/src/models"
	"github.com/username/istisna/backend/src/utils"
	"golang.org/x/net/publicsuffix"
)

// ErrAllSourcesExhausted signals that every relay in the chain failed to
// produce a valid bulletin. Internal diagnostics go to the log per attempt;
// clients get RateUnavailableMessage instead.
var ErrAllSourcesExhausted = errors.New("all relay strategies exhausted without a valid bulletin")

// RateUnavailableMessage is the user-facing text for an exhausted relay chain.
const RateUnavailableMessage = "Tüm kaynaklar denendi ancak döviz kurları alınamadı. Lütfen daha sonra tekrar deneyin."

const rateCacheKey = "tcmb:today"

// trackedCurrencies is the set of bulletin rows the product displays.
var trackedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
}

// tcmbRateService fetches the TCMB daily bulletin through an ordered relay
// chain. The service holds no mutable state besides its cache, so concurrent
// and repeated invocations are safe; at worst two callers fetch the same
// bulletin and the second cache write wins.
type tcmbRateService struct {
	targetURL      string
	relays         []RelayStrategy
	httpClient     *http.Client
	attemptTimeout time.Duration
	cache          *cache.Cache
	cacheTTL       time.Duration
}

// NewTCMBRateService creates the rate retrieval pipeline. The relay list is
// walked in order on every fetch; pass DefaultRelayChain() in production.
func NewTCMBRateService(targetURL string, relays []RelayStrategy, attemptTimeout time.Duration, rateCache *cache.Cache, cacheTTL time.Duration) RateService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &tcmbRateService{
		targetURL: targetURL,
		relays:    relays,
		httpClient: &http.Client{
			Jar: jar,
			// Per-attempt deadlines come from the request context; this is a
			// safety net for response body reads.
			Timeout: 2 * attemptTimeout,
		},
		attemptTimeout: attemptTimeout,
		cache:          rateCache,
		cacheTTL:       cacheTTL,
	}
}

// FetchRates walks the relay chain until one attempt yields a bulletin with at
// least one tracked currency. Attempt failures are warnings, never fatal to
// the pipeline; only full exhaustion is an error.
func (s *tcmbRateService) FetchRates(ctx context.Context) (*models.RateTable, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(rateCacheKey); found {
			if table, ok := cached.(*models.RateTable); ok {
				logger.L.Debug("Serving rate table from cache", "asOfDate", table.AsOfDate)
				return table, nil
			}
		}
	}

	for _, relay := range s.relays {
		table, err := s.fetchViaRelay(ctx, relay)
		if err != nil {
			if ctx.Err() != nil {
				// Consumer went away; stop the chain without touching state.
				return nil, ctx.Err()
			}
			logger.L.Warn("Rate fetch attempt failed", "relay", relay.Name(), "error", err)
			continue
		}

		logger.L.Info("Rate bulletin retrieved", "relay", relay.Name(), "asOfDate", table.AsOfDate, "currencies", len(table.Rates))
		if s.cache != nil {
			s.cache.Set(rateCacheKey, table, s.cacheTTL)
		}
		return table, nil
	}

	logger.L.Error("All relay strategies exhausted", "relayCount", len(s.relays))
	return nil, ErrAllSourcesExhausted
}

func (s *tcmbRateService) fetchViaRelay(ctx context.Context, relay RelayStrategy) (*models.RateTable, error) {
	relayURL := relay.BuildURL(s.targetURL)

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, relayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}

	return parseBulletin(body)
}

// parseBulletin extracts the publication date and the tracked currency rows
// from a TCMB bulletin document.
func parseBulletin(rawBody []byte) (*models.RateTable, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, errors.New("no document root in response")
	}

	table := &models.RateTable{}

	if dateValue := root.SelectAttrValue("Tarih", ""); dateValue != "" {
		published, err := utils.ParseBulletinDate(dateValue)
		if err != nil {
			logger.L.Warn("Bulletin date attribute unparseable", "value", dateValue, "error", err)
		} else {
			table.AsOfDate = utils.FormatLongDate(published)
		}
	}

	for _, node := range root.SelectElements("Currency") {
		code := node.SelectAttrValue("Kod", "")
		if !trackedCurrencies[code] {
			continue
		}
		table.Rates = append(table.Rates, models.ExchangeRate{
			Code:    code,
			Name:    childText(node, "Isim", ""),
			Buying:  childText(node, "ForexBuying", "N/A"),
			Selling: childText(node, "ForexSelling", "N/A"),
		})
	}

	// A well-formed document without tracked currencies is a relay serving the
	// wrong content, not a bulletin.
	if len(table.Rates) == 0 {
		return nil, errors.New("no tracked currency data found in response")
	}

	return table, nil
}

func childText(parent *etree.Element, tag, fallback string) string {
	child := parent.SelectElement(tag)
	if child == nil {
		return fallback
	}
	text := child.Text()
	if text == "" {
		return fallback
	}
	return text
}
