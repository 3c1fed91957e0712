package suppliers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/maps"
	"github.com/angelmondragon/streeteats-connect/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateEmpty     State = "empty"
	StateLoading   State = "loading"
	StateResults   State = "results"
	StateNoResults State = "no-results"
)

const (
	SourcePlaces = "places"
	SourceDemo   = "demo"

	detailsConcurrency = 4
)

// ErrStaleSearch is returned by a search that finished after a newer one
// started. Its results are discarded.
var ErrStaleSearch = errors.New("search superseded by a newer search")

// Provider is the places surface used for discovery.
type Provider interface {
	TextSearch(ctx context.Context, req maps.TextSearchRequest) ([]maps.Place, error)
	PlaceDetails(ctx context.Context, placeID string) (*maps.Place, error)
	ReverseGeocode(ctx context.Context, point maps.LatLng) ([]maps.AddressComponent, error)
}

// ProductCache receives every generated product so the cart can add it by id.
type ProductCache interface {
	SaveProduct(ctx context.Context, product catalog.Product) error
}

type Notifier interface {
	Success(title, message string) string
	Error(title, message string) string
	Warning(title, message string) string
	Info(title, message string) string
}

// Page is what the search page currently shows.
type Page struct {
	State     State
	Term      string
	Title     string
	Summary   string
	Source    string
	Suppliers []Supplier
}

type Deps struct {
	Provider Provider
	Products ProductCache
	Notifier Notifier
	Metrics  *metrics.SearchMetrics
	Rand     *rand.Rand
	Logger   *logger.Logger
}

// Service drives the supplier search page.
type Service struct {
	provider Provider
	products ProductCache
	notifier Notifier
	metrics  *metrics.SearchMetrics
	logg     *logger.Logger

	generation atomic.Uint64

	mu       sync.Mutex
	rng      *rand.Rand
	center   maps.LatLng
	location string
	category catalog.Category
	page     Page
}

func NewService(deps Deps) (*Service, error) {
	if deps.Rand == nil {
		return nil, fmt.Errorf("random source required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = discard{}
	}
	provider := deps.Provider
	if c, ok := provider.(*maps.Client); ok && c == nil {
		provider = nil
	}
	return &Service{
		provider: provider,
		products: deps.Products,
		notifier: notifier,
		metrics:  deps.Metrics,
		logg:     logg,
		rng:      deps.Rand,
		center:   DefaultCenter,
		page:     Page{State: StateEmpty},
	}, nil
}

// Page returns the current page.
func (s *Service) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Service) Center() maps.LatLng {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

// Location is the label of the current center, empty for the default.
func (s *Service) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// SelectCategory activates a category and returns the term shown in the
// search box.
func (s *Service) SelectCategory(value string) (string, bool) {
	c, ok := catalog.ParseCategory(value)
	if !ok {
		s.notifier.Warning("", fmt.Sprintf("Unknown category %q.", value))
		return "", false
	}
	s.mu.Lock()
	s.category = c
	s.mu.Unlock()
	return c.Label(), true
}

func (s *Service) ClearCategory() {
	s.mu.Lock()
	s.category = ""
	s.mu.Unlock()
}

// SelectRegion moves the search center to a state.
func (s *Service) SelectRegion(name string) bool {
	center, ok := Region(name)
	if !ok {
		s.notifier.Warning("", fmt.Sprintf("Unknown region %q.", name))
		return false
	}
	s.mu.Lock()
	s.center = center
	s.location = name
	s.mu.Unlock()
	s.notifier.Success("", fmt.Sprintf("Location set to %s. Ready to search!", name))
	return true
}

// UseLocation centers the search on a position fix and labels it with the
// state found by reverse geocoding.
func (s *Service) UseLocation(ctx context.Context, fix Fix) (string, error) {
	if fix.Err != GeoOK {
		msg := GeoErrorMessage(fix.Err)
		s.notifier.Error("", msg)
		return "", pkgerrors.New(pkgerrors.CodeValidation, msg)
	}

	point := maps.LatLng{Latitude: fix.Latitude, Longitude: fix.Longitude}
	label := "Current Location"
	if s.provider != nil {
		components, err := s.provider.ReverseGeocode(ctx, point)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "reverse geocode failed")
		} else if state, ok := maps.ComponentOfType(components, "administrative_area_level_1"); ok {
			label = fmt.Sprintf("Current Location (%s)", state)
		}
	}

	s.mu.Lock()
	s.center = point
	s.location = label
	s.mu.Unlock()

	if label == "Current Location" {
		s.notifier.Success("", "Current location set. Ready to search!")
	} else {
		s.notifier.Success("", fmt.Sprintf("Location set to %s. Ready to search!", label))
	}
	return label, nil
}

// Search runs a supplier search for term. Only the most recent search may
// change the page; earlier ones return ErrStaleSearch.
func (s *Service) Search(ctx context.Context, term string) (Page, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		s.notifier.Warning("", "Please enter a search term or select a category.")
		return s.Page(), pkgerrors.New(pkgerrors.CodeValidation, "search term is required")
	}

	started := time.Now()
	gen := s.generation.Add(1)

	s.mu.Lock()
	center := s.center
	query := catalog.FreeTextQuery(term)
	if s.category != "" {
		query = s.category.SearchQuery()
	}
	s.page = Page{State: StateLoading, Term: term, Summary: fmt.Sprintf("Searching for %s suppliers...", term)}
	s.mu.Unlock()

	ctx = s.logg.WithFields(ctx, map[string]any{"search_term": term, "generation": gen})

	found, source := s.discover(ctx, query, center, term)

	s.mu.Lock()
	if gen != s.generation.Load() {
		s.mu.Unlock()
		s.logg.Debug(ctx, "discarding stale search")
		return Page{}, ErrStaleSearch
	}

	page := Page{Term: term, Source: source}
	if len(found) == 0 {
		page.State = StateNoResults
		page.Summary = "No suppliers found"
	} else {
		for i := range found {
			found[i].Products = catalog.GenerateProducts(s.rng, found[i].PlaceID, found[i].Name, term)
		}
		page.State = StateResults
		page.Title = fmt.Sprintf("%s Suppliers & Products", term)
		page.Summary = pluralSuppliers(len(found))
		page.Suppliers = found
	}
	s.page = page
	s.mu.Unlock()

	s.metrics.ObserveSearch(source, string(page.State), time.Since(started))

	s.cacheProducts(ctx, found)
	return page, nil
}

// discover queries the provider and substitutes demo suppliers when it is
// missing or failing.
func (s *Service) discover(ctx context.Context, query string, center maps.LatLng, term string) ([]Supplier, string) {
	if s.provider == nil {
		s.logg.Info(ctx, "places provider not configured, using demo suppliers")
		return DemoSuppliers(term), SourceDemo
	}

	places, err := s.provider.TextSearch(ctx, maps.TextSearchRequest{
		Query:        query,
		Center:       center,
		RadiusMeters: SearchRadiusMeters,
	})
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "places search failed, using demo suppliers")
		return DemoSuppliers(term), SourceDemo
	}
	if len(places) == 0 {
		return nil, SourcePlaces
	}

	detailed := make([]*maps.Place, len(places))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailsConcurrency)
	for i, p := range places {
		i, p := i, p
		g.Go(func() error {
			d, err := s.provider.PlaceDetails(gctx, p.PlaceID)
			if err != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"place_id": p.PlaceID, "error": err.Error()}), "place details failed")
				return nil
			}
			detailed[i] = d
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Supplier, 0, len(detailed))
	for _, d := range detailed {
		if d != nil {
			out = append(out, fromPlace(*d))
		}
	}
	return out, SourcePlaces
}

// Query is a one-off search that leaves the page state alone. Category
// overrides Term when it parses, and a nil Center means the default.
type Query struct {
	Term     string
	Category string
	Center   *maps.LatLng
}

// Lookup runs q without touching the page, the selected category or the
// generation counter.
func (s *Service) Lookup(ctx context.Context, q Query) (Page, error) {
	term := strings.TrimSpace(q.Term)
	category, hasCategory := catalog.ParseCategory(q.Category)
	if term == "" && hasCategory {
		term = category.Label()
	}
	if term == "" {
		return Page{State: StateEmpty}, pkgerrors.New(pkgerrors.CodeValidation, "search term is required")
	}

	started := time.Now()
	query := catalog.FreeTextQuery(term)
	if hasCategory {
		query = category.SearchQuery()
	}
	center := DefaultCenter
	if q.Center != nil {
		center = *q.Center
	}

	found, source := s.discover(s.logg.WithField(ctx, "search_term", term), query, center, term)
	page := Page{Term: term, Source: source, State: StateNoResults, Summary: "No suppliers found"}
	if len(found) > 0 {
		s.mu.Lock()
		for i := range found {
			found[i].Products = catalog.GenerateProducts(s.rng, found[i].PlaceID, found[i].Name, term)
		}
		s.mu.Unlock()
		page.State = StateResults
		page.Title = fmt.Sprintf("%s Suppliers & Products", term)
		page.Summary = pluralSuppliers(len(found))
		page.Suppliers = found
	}
	s.metrics.ObserveSearch(source, string(page.State), time.Since(started))
	s.cacheProducts(ctx, found)
	return page, nil
}

func (s *Service) cacheProducts(ctx context.Context, found []Supplier) {
	if s.products == nil {
		return
	}
	for _, sup := range found {
		for _, p := range sup.Products {
			if err := s.products.SaveProduct(ctx, p); err != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"product_id": p.ID, "error": err.Error()}), "caching product failed")
			}
		}
	}
}

func pluralSuppliers(n int) string {
	if n == 1 {
		return "1 supplier found"
	}
	return fmt.Sprintf("%d suppliers found", n)
}

type discard struct{}

func (discard) Success(string, string) string { return "" }
func (discard) Error(string, string) string   { return "" }
func (discard) Warning(string, string) string { return "" }
func (discard) Info(string, string) string    { return "" }
