package bot

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"monitor-precos/internal/database"
	"monitor-precos/internal/models"
)

type fakeAPI struct {
	texts    []string
	edits    []string
	failHTML bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		if f.failHTML && m.ParseMode == tgbotapi.ModeHTML {
			return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
		}
		f.texts = append(f.texts, m.Text)
	case tgbotapi.EditMessageTextConfig:
		f.edits = append(f.edits, m.Text)
	}
	return tgbotapi.Message{MessageID: len(f.texts) + len(f.edits)}, nil
}

func (f *fakeAPI) last() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type stubScraper struct {
	db *database.DB
}

func (s stubScraper) ScrapeLink(ctx context.Context, linkID int64) (bool, error) {
	old := 1200.0
	_, err := s.db.InsertPriceHistory(ctx, models.PriceHistoryRecord{
		LinkID: linkID, Price: 900, OldPrice: &old, Availability: "In Stock", ScrapedAt: time.Now(),
	})
	return err == nil, err
}

type stubAlerts struct {
	triggered []models.TriggeredAlert
}

func (s stubAlerts) EvaluateAll(context.Context) ([]models.TriggeredAlert, error) {
	return s.triggered, nil
}

type env struct {
	db        *database.DB
	api       *fakeAPI
	bot       *Bot
	productID int64
	linkID    int64
}

func newEnv(t *testing.T, authorized int64) *env {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(database.DriverSQLite, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	productID, err := db.AddProduct(ctx, models.Product{Name: "TV <55>", CurrentPrice: 1000, Category: "TV"})
	require.NoError(t, err)
	competitorID, err := db.AddCompetitor(ctx, models.Competitor{Name: "Singer", WebsiteURL: "https://www.singersl.com"})
	require.NoError(t, err)
	linkID, err := db.AddLink(ctx, models.CompetitorProductLink{ProductID: productID, CompetitorID: competitorID, URL: "https://www.singersl.com/product/tv"})
	require.NoError(t, err)

	api := &fakeAPI{}
	alerts := stubAlerts{triggered: []models.TriggeredAlert{{ProductName: "TV <55>", CurrentPrice: 900, AlertPrice: 950}}}
	b := New(api, db, stubScraper{db: db}, alerts, authorized, zap.NewNop())
	return &env{db: db, api: api, bot: b, productID: productID, linkID: linkID}
}

func message(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chatID}}
}

func TestHelpIsPublic(t *testing.T) {
	e := newEnv(t, 99)
	e.bot.HandleMessage(context.Background(), message(1, "/help@monitor_bot"))
	assert.Contains(t, e.api.last(), "/compare")
}

func TestUnauthorizedChat(t *testing.T) {
	e := newEnv(t, 99)
	e.bot.HandleMessage(context.Background(), message(1, "/competitors"))
	assert.Equal(t, "Você não está autorizado a usar este bot.", e.api.last())
}

func TestCheckEditsWaitingMessage(t *testing.T) {
	e := newEnv(t, 0)
	e.bot.HandleMessage(context.Background(), message(1, "/check "+itoa(e.linkID)))

	require.Len(t, e.api.texts, 1)
	assert.Equal(t, "⏳ Verificando preço...", e.api.texts[0])
	require.Len(t, e.api.edits, 1)
	assert.Contains(t, e.api.edits[0], "Rs. 900.00")
	assert.Contains(t, e.api.edits[0], "25.0% OFF")
}

func TestCheckRejectsBadInput(t *testing.T) {
	e := newEnv(t, 0)
	e.bot.HandleMessage(context.Background(), message(1, "/check"))
	assert.Contains(t, e.api.last(), "Uso: /check")

	e.bot.HandleMessage(context.Background(), message(1, "/check 777"))
	assert.Equal(t, "❌ Link não encontrado.", e.api.last())
}

func TestCompetitorsAndCompare(t *testing.T) {
	e := newEnv(t, 0)
	ctx := context.Background()
	e.bot.HandleMessage(ctx, message(1, "/check "+itoa(e.linkID)))

	e.bot.HandleMessage(ctx, message(1, "/competitors"))
	assert.Contains(t, e.api.last(), "Singer")
	assert.Contains(t, e.api.last(), "Produtos monitorados: 1")

	e.bot.HandleMessage(ctx, message(1, "/compare "+itoa(e.productID)))
	assert.Contains(t, e.api.last(), "TV &lt;55&gt;")
	assert.Contains(t, e.api.last(), "Singer: Rs. 900.00 (-10.00%)")

	e.bot.HandleMessage(ctx, message(1, "/compare 404"))
	assert.Equal(t, "❌ Produto não encontrado.", e.api.last())
}

func TestAlertsCommandFallsBackToPlainText(t *testing.T) {
	e := newEnv(t, 0)
	e.api.failHTML = true

	e.bot.HandleMessage(context.Background(), message(1, "/alerts"))
	assert.Contains(t, e.api.last(), "1 alerta(s) disparado(s)")
}

func TestUnknownCommand(t *testing.T) {
	e := newEnv(t, 0)
	e.bot.HandleMessage(context.Background(), message(1, "/add x"))
	assert.Contains(t, e.api.last(), "Comando não reconhecido")
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	e := newEnv(t, 0)
	updates := make(chan tgbotapi.Update, 2)
	updates <- tgbotapi.Update{Message: message(1, "/help")}
	updates <- tgbotapi.Update{}
	close(updates)

	e.bot.Run(context.Background(), updates)
	assert.Len(t, e.api.texts, 1)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
