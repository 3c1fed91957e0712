package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultBaseURL          = "https://places.googleapis.com/v1"
	defaultGeocodeURL       = "https://maps.googleapis.com/maps/api/geocode/json"
	textSearchFieldMask     = "places.id,places.displayName,places.formattedAddress,places.location,places.rating,places.types"
	placeDetailsFieldMask   = "id,displayName,formattedAddress,nationalPhoneNumber,internationalPhoneNumber,rating,types,websiteUri,location,addressComponents"
	responseBodyReadLimit   = 1024
	defaultMaxResults       = 20
	defaultBreakerFailures  = 3
	defaultBreakerOpenDelay = 30 * time.Second
)

var (
	errAPIKeyRequired = errors.New("google maps api key is required")

	// ErrUnavailable marks calls rejected because the breaker is open.
	ErrUnavailable = errors.New("places provider unavailable")
)

// Client wraps the Google Places (New) and Geocoding APIs used for supplier
// discovery. Every call goes through a circuit breaker so a failing provider
// is skipped quickly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	geocodeURL string
	apiKey     string

	breakerFailures uint32
	breakerOpen     time.Duration
	onStateChange   func(from, to gobreaker.State)
	breaker         *gobreaker.CircuitBreaker[[]byte]
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Places base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithGeocodeURL overrides the reverse geocoding endpoint.
func WithGeocodeURL(geocodeURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(geocodeURL); trimmed != "" {
			c.geocodeURL = trimmed
		}
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how
// long it stays open.
func WithBreaker(maxFailures uint32, openFor time.Duration) Option {
	return func(c *Client) {
		if maxFailures > 0 {
			c.breakerFailures = maxFailures
		}
		if openFor > 0 {
			c.breakerOpen = openFor
		}
	}
}

// WithStateChange registers a breaker transition observer.
func WithStateChange(fn func(from, to gobreaker.State)) Option {
	return func(c *Client) {
		c.onStateChange = fn
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:          trimmedKey,
		baseURL:         defaultBaseURL,
		geocodeURL:      defaultGeocodeURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		breakerFailures: defaultBreakerFailures,
		breakerOpen:     defaultBreakerOpenDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	failures := client.breakerFailures
	client.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "google-places",
		MaxRequests: 1,
		Timeout:     client.breakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if client.onStateChange != nil {
				client.onStateChange(from, to)
			}
		},
		// Bad input is the caller's fault, not the provider's.
		IsSuccessful: func(err error) bool {
			return err == nil || pkgerrors.IsCode(err, pkgerrors.CodeValidation)
		},
	})

	return client, nil
}

// LatLng is the latitude/longitude pair returned by Google.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AddressComponent mirrors Google's address component payload.
type AddressComponent struct {
	LongName  string
	ShortName string
	Types     []string
}

// Place is the normalized view of a Places API result.
type Place struct {
	PlaceID           string
	Name              string
	FormattedAddress  string
	Phone             string
	Rating            float64
	Types             []string
	Website           string
	Location          LatLng
	AddressComponents []AddressComponent
}

// TextSearchRequest is a free-text query biased towards a circle.
type TextSearchRequest struct {
	Query        string
	Center       LatLng
	RadiusMeters float64
	MaxResults   int
}

type placePayload struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress         string   `json:"formattedAddress"`
	NationalPhoneNumber      string   `json:"nationalPhoneNumber"`
	InternationalPhoneNumber string   `json:"internationalPhoneNumber"`
	Rating                   float64  `json:"rating"`
	Types                    []string `json:"types"`
	WebsiteURI               string   `json:"websiteUri"`
	Location                 LatLng   `json:"location"`
	AddressComponents        []struct {
		LongText  string   `json:"longText"`
		ShortText string   `json:"shortText"`
		Types     []string `json:"types"`
	} `json:"addressComponents"`
}

func (p placePayload) toPlace() Place {
	phone := p.NationalPhoneNumber
	if phone == "" {
		phone = p.InternationalPhoneNumber
	}
	components := make([]AddressComponent, 0, len(p.AddressComponents))
	for _, comp := range p.AddressComponents {
		components = append(components, AddressComponent{
			LongName:  comp.LongText,
			ShortName: comp.ShortText,
			Types:     comp.Types,
		})
	}
	return Place{
		PlaceID:           p.ID,
		Name:              p.DisplayName.Text,
		FormattedAddress:  p.FormattedAddress,
		Phone:             phone,
		Rating:            p.Rating,
		Types:             p.Types,
		Website:           p.WebsiteURI,
		Location:          p.Location,
		AddressComponents: components,
	}
}

// TextSearch runs places:searchText.
func (c *Client) TextSearch(ctx context.Context, req TextSearchRequest) ([]Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	body := map[string]any{
		"textQuery":      req.Query,
		"maxResultCount": maxResults,
	}
	if req.RadiusMeters > 0 {
		body["locationBias"] = map[string]any{
			"circle": map[string]any{
				"center": req.Center,
				"radius": req.RadiusMeters,
			},
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal text search request")
	}

	raw, err := c.execute(ctx, "text search", func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("places:searchText"), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
		httpReq.Header.Set("X-Goog-FieldMask", textSearchFieldMask)
		return httpReq, nil
	})
	if err != nil {
		return nil, err
	}

	var apiResp struct {
		Places []placePayload `json:"places"`
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode text search response")
	}

	places := make([]Place, 0, len(apiResp.Places))
	for _, p := range apiResp.Places {
		places = append(places, p.toPlace())
	}
	return places, nil
}

// PlaceDetails fetches the full record for a place ID.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	trimmed := strings.TrimSpace(placeID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "place ID is required")
	}

	raw, err := c.execute(ctx, "place details", func() (*http.Request, error) {
		target := fmt.Sprintf("%s/places/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
		httpReq.Header.Set("X-Goog-FieldMask", placeDetailsFieldMask)
		return httpReq, nil
	})
	if err != nil {
		return nil, err
	}

	var apiResp placePayload
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode place details response")
	}
	place := apiResp.toPlace()
	return &place, nil
}

// ReverseGeocode returns the address components of the best match for a point.
func (c *Client) ReverseGeocode(ctx context.Context, point LatLng) ([]AddressComponent, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}

	raw, err := c.execute(ctx, "reverse geocode", func() (*http.Request, error) {
		u, err := url.Parse(c.geocodeURL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("latlng", fmt.Sprintf("%f,%f", point.Latitude, point.Longitude))
		q.Set("key", c.apiKey)
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
	if err != nil {
		return nil, err
	}

	var apiResp struct {
		Status  string `json:"status"`
		Results []struct {
			AddressComponents []struct {
				LongName  string   `json:"long_name"`
				ShortName string   `json:"short_name"`
				Types     []string `json:"types"`
			} `json:"address_components"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode geocode response")
	}
	if apiResp.Status != "" && apiResp.Status != "OK" && apiResp.Status != "ZERO_RESULTS" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geocode status "+apiResp.Status)
	}
	if len(apiResp.Results) == 0 {
		return nil, nil
	}

	components := make([]AddressComponent, 0, len(apiResp.Results[0].AddressComponents))
	for _, comp := range apiResp.Results[0].AddressComponents {
		components = append(components, AddressComponent{
			LongName:  comp.LongName,
			ShortName: comp.ShortName,
			Types:     comp.Types,
		})
	}
	return components, nil
}

// ComponentOfType returns the long name of the first component tagged with typ.
func ComponentOfType(components []AddressComponent, typ string) (string, bool) {
	for _, comp := range components {
		for _, t := range comp.Types {
			if t == typ {
				return comp.LongName, true
			}
		}
	}
	return "", false
}

// execute sends the request built by build through the breaker and returns
// the body of a 200 response.
func (c *Client) execute(ctx context.Context, op string, build func() (*http.Request, error)) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		httpReq, err := build()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+op+" request")
		}
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), op+" request failed")
		}
		return io.ReadAll(resp.Body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrUnavailable, op+" skipped: "+err.Error())
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), op+" canceled")
		}
		return nil, err
	}
	return body, nil
}

// State reports the breaker state, mostly for readiness probes.
func (c *Client) State() gobreaker.State {
	if c == nil || c.breaker == nil {
		return gobreaker.StateOpen
	}
	return c.breaker.State()
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
