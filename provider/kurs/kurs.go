package kurs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxpoints/storage/types"
)

// DefaultURL is the kurs.kz listing page
const DefaultURL = "https://kurs.kz/site/index"

// maxPageSize caps the listing page read
const maxPageSize = 16 << 20

var (
	ErrInvalidStatus = errors.New("invalid status code received")
	ErrEmptyBody     = errors.New("empty response body")
	errNilCity       = errors.New("nil city")
)

// Report is the outcome of a single listing fetch
type Report struct {
	FetchedAt time.Time
	City      *City

	// Outlets are the outlets of every decoded literal, in literal order
	Outlets []*types.Outlet

	Scripts        int // inline script blocks found
	Literals       int // literals found
	FailedLiterals int // literals that failed to decode
	Dropped        int // records dropped while decoding
}

// Degraded reports if the report might be missing outlets
func (r *Report) Degraded() bool {
	return r.Literals == 0 || r.FailedLiterals > 0
}

// Provider is the kurs.kz listing page scraping provider
type Provider struct {
	client    *http.Client
	extractor *Extractor
	url       string
}

// NewProvider creates a new instance of the kurs.kz provider
func NewProvider(url string, timeout time.Duration, extractor *Extractor) *Provider {
	return &Provider{
		client: &http.Client{
			Timeout: timeout,
		},
		extractor: extractor,
		url:       url,
	}
}

func (p *Provider) Name() string {
	return types.SourceKurs.String()
}

// Fetch fetches and decodes the city listing.
// Only transport-level failures are returned as errors
func (p *Provider) Fetch(ctx context.Context, city *City) (*Report, error) {
	if city == nil {
		return nil, errNilCity
	}

	reqURL, err := p.cityURL(city)
	if err != nil {
		return nil, err
	}

	// Prepare the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("unable to create new GET request: %w", err)
	}

	req.Header.Set("Accept", "text/html")

	// Execute the request
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to execute GET request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, resp.StatusCode)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}

	if len(bytes.TrimSpace(page)) == 0 {
		return nil, ErrEmptyBody
	}

	return p.parse(page, city), nil
}

// parse runs the page through extraction and decoding
func (p *Provider) parse(page []byte, city *City) *Report {
	extraction := p.extractor.Extract(bytes.NewReader(page), city)

	report := &Report{
		FetchedAt: time.Now().UTC(),
		City:      city,
		Scripts:   extraction.Scripts,
		Literals:  len(extraction.Literals),
	}

	// Literals are decoded independently
	var (
		decoded = make([]*Decoded, len(extraction.Literals))
		g       errgroup.Group
	)

	for i, literal := range extraction.Literals {
		g.Go(func() error {
			d, err := Decode(literal)
			if err != nil {
				return nil //nolint:nilerr // counted as a failed literal
			}

			decoded[i] = d

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never fail

	for _, d := range decoded {
		if d == nil {
			report.FailedLiterals++

			continue
		}

		report.Dropped += d.Dropped

		for _, outlet := range d.Outlets {
			if outlet.City == "" {
				outlet.City = city.Name
			}

			report.Outlets = append(report.Outlets, outlet)
		}
	}

	return report
}

// cityURL builds the listing URL for the given city
func (p *Provider) cityURL(city *City) (string, error) {
	u, err := url.Parse(p.url)
	if err != nil {
		return "", fmt.Errorf("unable to parse listing URL: %w", err)
	}

	q := u.Query()
	q.Set("city", city.Query)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
