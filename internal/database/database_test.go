package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"monitor-precos/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(DriverSQLite, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type seeded struct {
	productID    int64
	competitorID int64
	linkID       int64
}

func seed(t *testing.T, db *DB) seeded {
	t.Helper()
	ctx := context.Background()
	productID, err := db.AddProduct(ctx, models.Product{Name: "TV", CurrentPrice: 1000, Brand: "LG", Category: "TV"})
	require.NoError(t, err)
	competitorID, err := db.AddCompetitor(ctx, models.Competitor{Name: "BigDeals", WebsiteURL: "https://bigdeals.lk"})
	require.NoError(t, err)
	linkID, err := db.AddLink(ctx, models.CompetitorProductLink{ProductID: productID, CompetitorID: competitorID, URL: "https://bigdeals.lk/tv/lg-55"})
	require.NoError(t, err)
	return seeded{productID: productID, competitorID: competitorID, linkID: linkID}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New("postgres", "x", zap.NewNop())
	assert.Error(t, err)
}

func TestProductRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	old := 1200.0

	id, err := db.AddProduct(ctx, models.Product{Name: "Geladeira", CurrentPrice: 999.5, PreviousPrice: &old, Brand: "Abans", Category: "fridge"})
	require.NoError(t, err)

	p, err := db.GetProductByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Geladeira", p.Name)
	assert.Equal(t, 999.5, p.CurrentPrice)
	require.NotNil(t, p.PreviousPrice)
	assert.Equal(t, 1200.0, *p.PreviousPrice)
	assert.False(t, p.CreatedAt.IsZero())

	_, err = db.GetProductByID(ctx, id+1)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := db.ListProducts(ctx, "fridge")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = db.ListProducts(ctx, "tv")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAddLinkRejectsDuplicatePair(t *testing.T) {
	db := newTestDB(t)
	s := seed(t, db)

	_, err := db.AddLink(context.Background(), models.CompetitorProductLink{
		ProductID: s.productID, CompetitorID: s.competitorID, URL: "https://bigdeals.lk/tv/other",
	})
	assert.ErrorIs(t, err, ErrDuplicateLink)
}

func TestHistoryOrderingAndLatest(t *testing.T) {
	db := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	for _, obs := range []struct {
		price float64
		at    time.Time
	}{
		{1100, base},
		{1050, base.Add(2 * time.Hour)},
		{1080, base.Add(time.Hour)},
		{1050, base.Add(2 * time.Hour)},
	} {
		_, err := db.InsertPriceHistory(ctx, models.PriceHistoryRecord{LinkID: s.linkID, Price: obs.price, Availability: "In Stock", ScrapedAt: obs.at})
		require.NoError(t, err)
	}

	history, err := db.LinkHistory(ctx, s.linkID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, []float64{1050, 1050, 1080, 1100}, []float64{history[0].Price, history[1].Price, history[2].Price, history[3].Price})
	assert.Greater(t, history[0].ID, history[1].ID)
	assert.True(t, history[0].ScrapedAt.Equal(base.Add(2*time.Hour)))

	latest, err := db.LatestPrice(ctx, s.linkID)
	require.NoError(t, err)
	assert.Equal(t, history[0].ID, latest.ID)
	assert.Nil(t, latest.OldPrice)

	byProduct, err := db.ProductHistory(ctx, s.productID)
	require.NoError(t, err)
	assert.Len(t, byProduct, 4)
}

func TestActiveLinkLookups(t *testing.T) {
	db := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()

	link, err := db.GetActiveLinkByURL(ctx, "https://bigdeals.lk/tv/lg-55")
	require.NoError(t, err)
	assert.Equal(t, s.linkID, link.ID)
	assert.Equal(t, "BigDeals", link.CompetitorName)

	require.NoError(t, db.FillLinkProductName(ctx, s.linkID, "LG 55"))
	require.NoError(t, db.FillLinkProductName(ctx, s.linkID, "outro nome"))
	link, err = db.GetActiveLink(ctx, s.linkID)
	require.NoError(t, err)
	assert.Equal(t, "LG 55", link.ProductName)

	require.NoError(t, db.DeactivateLink(ctx, s.linkID))
	_, err = db.GetActiveLink(ctx, s.linkID)
	assert.ErrorIs(t, err, ErrNotFound)
	links, err := db.ListActiveLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestCompetitorStats(t *testing.T) {
	db := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, obs := range []struct {
		price float64
		at    time.Time
	}{
		{500, now.Add(-10 * 24 * time.Hour)},
		{1000, now.Add(-2 * time.Hour)},
		{1200, now.Add(-time.Hour)},
	} {
		_, err := db.InsertPriceHistory(ctx, models.PriceHistoryRecord{LinkID: s.linkID, Price: obs.price, ScrapedAt: obs.at})
		require.NoError(t, err)
	}
	require.NoError(t, db.TouchCompetitor(ctx, s.competitorID, now))

	_, err := db.AddCompetitor(ctx, models.Competitor{Name: "Fechada", WebsiteURL: "https://x.lk", Status: models.CompetitorInactive})
	require.NoError(t, err)

	stats, err := db.ListCompetitorStats(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].TrackedProducts)
	assert.Equal(t, 1100.0, stats[0].AvgCompetitorPrice)
	require.NotNil(t, stats[0].LastPriceUpdate)
	assert.WithinDuration(t, now.Add(-time.Hour), *stats[0].LastPriceUpdate, time.Second)
	require.NotNil(t, stats[0].LastScrapedAt)
	assert.Equal(t, 24, stats[0].ScrapeFrequencyHours)
}

func TestCurrentProductPrice(t *testing.T) {
	db := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()

	price, err := db.CurrentProductPrice(ctx, s.productID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, price)

	_, err = db.InsertPriceHistory(ctx, models.PriceHistoryRecord{LinkID: s.linkID, Price: 870, ScrapedAt: time.Now()})
	require.NoError(t, err)
	price, err = db.CurrentProductPrice(ctx, s.productID)
	require.NoError(t, err)
	assert.Equal(t, 870.0, price)

	_, err = db.CurrentProductPrice(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAlertLifecycle(t *testing.T) {
	db := newTestDB(t)
	s := seed(t, db)
	ctx := context.Background()

	userID, err := db.AddUser(ctx, "ana", "ana@example.com")
	require.NoError(t, err)
	id, err := db.SetAlert(ctx, userID, s.productID, 900)
	require.NoError(t, err)

	pending, err := db.PendingAlerts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ana@example.com", pending[0].UserEmail)
	assert.Equal(t, "TV", pending[0].ProductName)

	marked, err := db.MarkAlertTriggered(ctx, id)
	require.NoError(t, err)
	assert.True(t, marked)
	marked, err = db.MarkAlertTriggered(ctx, id)
	require.NoError(t, err)
	assert.False(t, marked)

	pending, err = db.PendingAlerts(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	again, err := db.SetAlert(ctx, userID, s.productID, 850)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	alerts, err := db.UserAlerts(ctx, userID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Triggered)
	assert.Equal(t, 850.0, alerts[0].AlertPrice)
}

func TestScanHelpers(t *testing.T) {
	ts := scanTime("2024-06-01 09:30:00+00:00")
	require.NotNil(t, ts)
	assert.Equal(t, 9, ts.Hour())
	assert.Nil(t, scanTime(nil))
	assert.Nil(t, scanTime(""))
	assert.Nil(t, scanTime("ontem"))

	assert.Equal(t, 12.5, scanFloat([]byte("12.5")))
	assert.Equal(t, 3.0, scanFloat(int64(3)))
	assert.Equal(t, 0.0, scanFloat(nil))
}
