package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"address-etl/internal/catalog"
	"address-etl/internal/config"
	"address-etl/internal/geometry"
	"address-etl/internal/models"
	"address-etl/internal/resolver"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// fakeStore is an in-memory feature store covering every pipeline call.
type fakeStore struct {
	addrs []models.Address

	replaced     []models.Issue
	infoCalls    []string
	addrAccounts map[int64]*string
}

func (f *fakeStore) Directions(ctx context.Context) ([]string, error) {
	return []string{"N", "S", "E", "W"}, nil
}
func (f *fakeStore) NumberSuffixes(ctx context.Context) ([]string, error) {
	return []string{"1/2"}, nil
}
func (f *fakeStore) StreetTypes(ctx context.Context) ([]string, error) {
	return []string{"ST"}, nil
}
func (f *fakeStore) UnitTypes(ctx context.Context) ([]string, error) { return []string{"APT"}, nil }
func (f *fakeStore) Units(ctx context.Context) ([]string, error)     { return []string{"1"}, nil }
func (f *fakeStore) Counties(ctx context.Context) ([]string, error) {
	return []string{"TILLAMOOK"}, nil
}
func (f *fakeStore) PostalCommunities(ctx context.Context) ([]catalog.PostalCommunity, error) {
	return []catalog.PostalCommunity{{PostComm: "TILLAMOOK", Zip: strPtr("97141")}}, nil
}
func (f *fakeStore) RoadTuples(ctx context.Context) ([]catalog.RoadTuple, error) {
	return []catalog.RoadTuple{{Name: "MAIN", Type: "ST", PostComm: "TILLAMOOK"}}, nil
}

func (f *fakeStore) Addresses(ctx context.Context, where string) ([]models.Address, error) {
	return f.addrs, nil
}

func (f *fakeStore) PriorMaintenance(ctx context.Context) (map[models.IssueKey]models.Maintenance, error) {
	return nil, nil
}

func (f *fakeStore) ReplaceIssues(ctx context.Context, issues []models.Issue) error {
	f.replaced = issues
	return nil
}

func (f *fakeStore) DeleteMissingInfo(ctx context.Context, keep []int64) error {
	f.infoCalls = append(f.infoCalls, "delete")
	return nil
}

func (f *fakeStore) UpdateInfoOverlays(ctx context.Context, overlays map[int64]resolver.Overlay) error {
	f.infoCalls = append(f.infoCalls, "overlays")
	return nil
}

func (f *fakeStore) UpdateInfoMaptaxlots(ctx context.Context, values map[int64]*string) error {
	f.infoCalls = append(f.infoCalls, "maptaxlots")
	return nil
}

func (f *fakeStore) UpdateInfoAccounts(ctx context.Context, values map[int64]*string) error {
	f.infoCalls = append(f.infoCalls, "accounts")
	return nil
}

func (f *fakeStore) UpdateAddressMaptaxlots(ctx context.Context, values map[int64]*string) error {
	return nil
}

func (f *fakeStore) UpdateAddressAccounts(ctx context.Context, values map[int64]*string) error {
	f.addrAccounts = values
	return nil
}

type fakeAccounts struct{}

func (fakeAccounts) ActiveAccounts(ctx context.Context) ([]models.AccountRow, error) {
	return []models.AccountRow{{Account: "123456", Maptaxlot: "1S10W2CB05100"}}, nil
}

func (fakeAccounts) TaxYearRows(ctx context.Context, year int) ([]models.TaxYearRow, error) {
	return []models.TaxYearRow{{Account: "123456", Maptaxlot: "1S10W2CB05100", TCA: "180101"}}, nil
}

// fakeGeometry contains every point in one taxlot and one tax code area.
type fakeGeometry struct{}

func (fakeGeometry) WithinJoin(ctx context.Context, layer, keyField string, points map[int64]geometry.Point) (map[int64][]string, error) {
	out := make(map[int64][]string, len(points))
	for id := range points {
		out[id] = []string{"1S10W2CB05100"}
	}
	return out, nil
}

func (fakeGeometry) OverlayAttribute(ctx context.Context, layer, field string, points map[int64]geometry.Point) (map[int64]*string, error) {
	out := make(map[int64]*string, len(points))
	for id := range points {
		out[id] = strPtr("180101")
	}
	return out, nil
}

func (fakeGeometry) Area(ctx context.Context, layer, keyField, key string) (float64, error) {
	return 43560, nil
}

func (fakeGeometry) Centroid(ctx context.Context, layer, keyField, key string, epsg int) (geometry.Point, error) {
	return geometry.Point{X: -123.84, Y: 45.45}, nil
}

func testContext(store *fakeStore) *Context {
	return &Context{
		Log:      zerolog.Nop(),
		Config:   config.Config{TaxYear: 2026, TaxlotLayer: "taxlot", TaxCodeAreaLayer: "tax_code_area"},
		Store:    store,
		Accounts: fakeAccounts{},
		Geometry: fakeGeometry{},
	}
}

func validAddress(id int64) models.Address {
	return models.Address{
		ID:         id,
		StNum:      intPtr(100),
		Name:       strPtr("MAIN"),
		Type:       strPtr("ST"),
		PostComm:   strPtr("TILLAMOOK"),
		Zip:        strPtr("97141"),
		County:     strPtr("TILLAMOOK"),
		Confidence: strPtr("H"),
		Valid:      "Y",
		Archived:   "N",
		InitDate:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRun_UnknownPipeline(t *testing.T) {
	c := testContext(&fakeStore{})
	err := c.Run(context.Background(), []string{"no-such-pipeline"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPipeline)
}

func TestRun_AddressValidation(t *testing.T) {
	store := &fakeStore{addrs: []models.Address{
		validAddress(1),
		validAddress(2),
	}}
	store.addrs[1].StNum = intPtr(102)
	store.addrs[1].Zip = nil

	c := testContext(store)
	require.NoError(t, c.Run(context.Background(), []string{AddressValidation}))

	require.Len(t, store.replaced, 1)
	assert.Equal(t, int64(2), store.replaced[0].AddressID)
	assert.Equal(t, "`zip` must not be null.", store.replaced[0].Description)
	assert.True(t, store.replaced[0].OKToPublish)
}

func TestRun_AccountResolution(t *testing.T) {
	store := &fakeStore{addrs: []models.Address{validAddress(7)}}

	c := testContext(store)
	require.NoError(t, c.Run(context.Background(), []string{AccountResolution}))

	assert.Equal(t, []string{"delete", "overlays", "maptaxlots", "accounts"}, store.infoCalls)
	require.NotNil(t, store.addrAccounts[7])
	assert.Equal(t, "123456", *store.addrAccounts[7])
}
