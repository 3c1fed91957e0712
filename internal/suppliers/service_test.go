package suppliers

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/streeteats-connect/internal/catalog"
	"github.com/angelmondragon/streeteats-connect/internal/popup"
	pkgerrors "github.com/angelmondragon/streeteats-connect/pkg/errors"
	"github.com/angelmondragon/streeteats-connect/pkg/maps"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu         sync.Mutex
	places     []maps.Place
	searchErr  error
	detailErrs map[string]error
	components []maps.AddressComponent
	geoErr     error
	requests   []maps.TextSearchRequest
	gates      map[string]chan struct{}
}

func (f *fakeProvider) TextSearch(ctx context.Context, req maps.TextSearchRequest) ([]maps.Place, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate := f.gates[req.Query]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.places, nil
}

func (f *fakeProvider) PlaceDetails(_ context.Context, placeID string) (*maps.Place, error) {
	if err := f.detailErrs[placeID]; err != nil {
		return nil, err
	}
	for _, p := range f.places {
		if p.PlaceID == placeID {
			d := p
			d.Phone = "+91 22 1234 5678"
			return &d, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeProvider) ReverseGeocode(context.Context, maps.LatLng) ([]maps.AddressComponent, error) {
	return f.components, f.geoErr
}

type productRecorder struct {
	mu       sync.Mutex
	products []catalog.Product
}

func (r *productRecorder) SaveProduct(_ context.Context, p catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, p)
	return nil
}

func newTestService(t *testing.T, provider Provider) (*Service, *popup.Recorder, *productRecorder) {
	t.Helper()
	rec := &popup.Recorder{}
	cache := &productRecorder{}
	svc, err := NewService(Deps{
		Provider: provider,
		Products: cache,
		Notifier: popup.NewManager(rec),
		Rand:     rand.New(rand.NewSource(11)),
	})
	require.NoError(t, err)
	return svc, rec, cache
}

func TestSearchUsesDemoSuppliersWithoutProvider(t *testing.T) {
	svc, _, cache := newTestService(t, nil)

	page, err := svc.Search(context.Background(), " Onion ")
	require.NoError(t, err)
	require.Equal(t, StateResults, page.State)
	require.Equal(t, SourceDemo, page.Source)
	require.Equal(t, "Onion Suppliers & Products", page.Title)
	require.Equal(t, "3 suppliers found", page.Summary)
	require.Len(t, page.Suppliers, 3)
	require.Equal(t, "Onion Wholesale Market", page.Suppliers[0].Name)
	require.Equal(t, "Fresh Onion Suppliers", page.Suppliers[1].Name)
	require.Equal(t, "Premium Onion Mart", page.Suppliers[2].Name)

	total := 0
	for _, sup := range page.Suppliers {
		require.True(t, sup.IsDemo)
		require.GreaterOrEqual(t, len(sup.Products), 3)
		for _, p := range sup.Products {
			require.Equal(t, sup.PlaceID, p.SupplierID)
			require.Equal(t, catalog.CategoryVegetables, p.Category)
		}
		total += len(sup.Products)
	}
	require.Len(t, cache.products, total)
	require.Equal(t, page, svc.Page())
}

func TestSearchFallsBackWhenProviderUnavailable(t *testing.T) {
	provider := &fakeProvider{searchErr: pkgerrors.Wrap(pkgerrors.CodeDependency, maps.ErrUnavailable, "breaker open")}
	svc, _, _ := newTestService(t, provider)

	page, err := svc.Search(context.Background(), "rice")
	require.NoError(t, err)
	require.Equal(t, SourceDemo, page.Source)
	require.Len(t, page.Suppliers, 3)
}

func TestSearchUsesPlacesResults(t *testing.T) {
	provider := &fakeProvider{
		places: []maps.Place{
			{PlaceID: "p1", Name: "Crawford Market", Rating: 4.3, Types: []string{"point_of_interest", "store"}},
			{PlaceID: "p2", Name: "Broken Place"},
			{PlaceID: "p3", Name: "APMC Vashi", Types: []string{"wholesaler"}},
		},
		detailErrs: map[string]error{"p2": errors.New("boom")},
	}
	svc, _, _ := newTestService(t, provider)

	page, err := svc.Search(context.Background(), "tomato")
	require.NoError(t, err)
	require.Equal(t, SourcePlaces, page.Source)
	require.Len(t, page.Suppliers, 2)
	require.Equal(t, "Crawford Market", page.Suppliers[0].Name)
	require.Equal(t, "Store", page.Suppliers[0].SupplierType)
	require.Equal(t, "+91 22 1234 5678", page.Suppliers[0].Phone)
	require.Equal(t, "Wholesaler", page.Suppliers[1].SupplierType)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	require.Equal(t, "tomato wholesale OR tomato supplier OR tomato market OR bulk tomato", req.Query)
	require.Equal(t, DefaultCenter, req.Center)
	require.Equal(t, float64(SearchRadiusMeters), req.RadiusMeters)
}

func TestSearchUsesSelectedCategoryQuery(t *testing.T) {
	provider := &fakeProvider{}
	svc, _, _ := newTestService(t, provider)

	label, ok := svc.SelectCategory("dairy")
	require.True(t, ok)
	require.Equal(t, "Dairy", label)
	require.True(t, svc.SelectRegion("Kerala"))

	page, err := svc.Search(context.Background(), label)
	require.NoError(t, err)
	require.Equal(t, StateNoResults, page.State)
	require.Equal(t, catalog.CategoryDairy.SearchQuery(), provider.requests[0].Query)
	require.Equal(t, maps.LatLng{Latitude: 10.8505, Longitude: 76.2711}, provider.requests[0].Center)

	svc.ClearCategory()
	_, err = svc.Search(context.Background(), "milk")
	require.NoError(t, err)
	require.Equal(t, catalog.FreeTextQuery("milk"), provider.requests[1].Query)
}

func TestSearchRejectsEmptyTerm(t *testing.T) {
	svc, rec, _ := newTestService(t, nil)

	page, err := svc.Search(context.Background(), "   ")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, StateEmpty, page.State)

	toast, ok := rec.LastToast()
	require.True(t, ok)
	require.Equal(t, popup.LevelWarning, toast.Level)
	require.Equal(t, "Please enter a search term or select a category.", toast.Message)
}

func TestOnlyLatestSearchUpdatesPage(t *testing.T) {
	gate := make(chan struct{})
	provider := &fakeProvider{
		gates: map[string]chan struct{}{catalog.FreeTextQuery("slow"): gate},
	}
	svc, _, _ := newTestService(t, provider)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Search(context.Background(), "slow")
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		provider.mu.Lock()
		defer provider.mu.Unlock()
		return len(provider.requests) == 1
	}, time.Second, 5*time.Millisecond)

	page, err := svc.Search(context.Background(), "fast")
	require.NoError(t, err)
	require.Equal(t, "fast", page.Term)

	close(gate)
	require.ErrorIs(t, <-errCh, ErrStaleSearch)
	require.Equal(t, "fast", svc.Page().Term)
}

func TestSelectRegionUnknown(t *testing.T) {
	svc, rec, _ := newTestService(t, nil)
	require.False(t, svc.SelectRegion("Atlantis"))
	require.Equal(t, DefaultCenter, svc.Center())
	require.Len(t, rec.ToastsAt(popup.LevelWarning), 1)
}

func TestUseLocationErrors(t *testing.T) {
	cases := map[GeoErrorCode]string{
		GeoPermissionDenied:    "Unable to get your location. Please allow location access.",
		GeoPositionUnavailable: "Unable to get your location. Location information unavailable.",
		GeoTimeout:             "Unable to get your location. Location request timed out.",
		GeoErrorCode(9):        "Unable to get your location. An unknown error occurred.",
	}
	for code, want := range cases {
		svc, rec, _ := newTestService(t, nil)
		_, err := svc.UseLocation(context.Background(), Fix{Err: code})
		require.Error(t, err)
		toast, _ := rec.LastToast()
		require.Equal(t, want, toast.Message)
		require.Equal(t, DefaultCenter, svc.Center())
	}
}

func TestUseLocationLabelsState(t *testing.T) {
	provider := &fakeProvider{components: []maps.AddressComponent{
		{LongName: "Pune", Types: []string{"locality"}},
		{LongName: "Maharashtra", Types: []string{"administrative_area_level_1", "political"}},
	}}
	svc, rec, _ := newTestService(t, provider)

	label, err := svc.UseLocation(context.Background(), Fix{Latitude: 18.52, Longitude: 73.85})
	require.NoError(t, err)
	require.Equal(t, "Current Location (Maharashtra)", label)
	require.Equal(t, maps.LatLng{Latitude: 18.52, Longitude: 73.85}, svc.Center())
	toast, _ := rec.LastToast()
	require.Equal(t, "Location set to Current Location (Maharashtra). Ready to search!", toast.Message)

	provider.geoErr = errors.New("denied")
	label, err = svc.UseLocation(context.Background(), Fix{Latitude: 1, Longitude: 2})
	require.NoError(t, err)
	require.Equal(t, "Current Location", label)
}

func TestSupplierType(t *testing.T) {
	require.Equal(t, "Supplier", SupplierType(nil))
	require.Equal(t, "Grocery Or Supermarket", SupplierType([]string{"point_of_interest", "grocery_or_supermarket"}))
	require.Equal(t, "Point Of Interest", SupplierType([]string{"point_of_interest"}))
	require.Equal(t, "Food", SupplierType([]string{"food", "store"}))
}

func TestRegionNamesSorted(t *testing.T) {
	names := RegionNames()
	require.Len(t, names, 28)
	require.Equal(t, "Andhra Pradesh", names[0])
	require.Equal(t, "West Bengal", names[len(names)-1])
}

func TestLookupLeavesPageAlone(t *testing.T) {
	provider := &fakeProvider{places: []maps.Place{{PlaceID: "p1", Name: "Spice Hub"}}}
	svc, err := NewService(Deps{Provider: provider, Rand: rand.New(rand.NewSource(3))})
	require.NoError(t, err)

	center := maps.LatLng{Latitude: 19.07, Longitude: 72.87}
	page, err := svc.Lookup(context.Background(), Query{Category: "spices", Center: &center})
	require.NoError(t, err)
	require.Equal(t, StateResults, page.State)
	require.Equal(t, "Spices", page.Term)
	require.Len(t, page.Suppliers, 1)
	require.NotEmpty(t, page.Suppliers[0].Products)

	require.Len(t, provider.requests, 1)
	require.Equal(t, catalog.CategorySpices.SearchQuery(), provider.requests[0].Query)
	require.Equal(t, center, provider.requests[0].Center)

	require.Equal(t, StateEmpty, svc.Page().State)
	require.Zero(t, svc.generation.Load())
}

func TestLookupRequiresTerm(t *testing.T) {
	svc, err := NewService(Deps{Rand: rand.New(rand.NewSource(1))})
	require.NoError(t, err)
	_, err = svc.Lookup(context.Background(), Query{Category: "not-a-category"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
