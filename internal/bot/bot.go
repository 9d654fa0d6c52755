package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"monitor-precos/internal/models"
)

// Init inicializa o bot do Telegram
func Init(token string, log *zap.Logger) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN não configurado. Verifique o arquivo .env")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		if err.Error() == "Unauthorized" {
			return nil, fmt.Errorf("token do Telegram inválido ou expirado. Verifique o TELEGRAM_BOT_TOKEN no arquivo .env. Para obter um token, fale com @BotFather no Telegram")
		}
		return nil, fmt.Errorf("erro ao conectar com Telegram: %w", err)
	}

	api.Debug = false
	log.Info("bot autorizado", zap.String("username", api.Self.UserName))
	return api, nil
}

// API é a parte do BotAPI usada para responder
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Store é a parte do banco consultada pelos comandos
type Store interface {
	ListCompetitorStats(ctx context.Context, since time.Time) ([]models.CompetitorStats, error)
	GetActiveLink(ctx context.Context, id int64) (*models.CompetitorProductLink, error)
	LatestPrice(ctx context.Context, linkID int64) (*models.PriceHistoryRecord, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ProductCompetitorPrices(ctx context.Context, productID int64) ([]models.CompetitorPrice, error)
}

// LinkScraper faz o scraping imediato de um link
type LinkScraper interface {
	ScrapeLink(ctx context.Context, linkID int64) (bool, error)
}

// AlertRunner avalia todos os alertas pendentes
type AlertRunner interface {
	EvaluateAll(ctx context.Context) ([]models.TriggeredAlert, error)
}

// Bot atende os comandos de operação enviados pelo Telegram
type Bot struct {
	api          API
	store        Store
	scraper      LinkScraper
	alerts       AlertRunner
	authorizedID int64
	log          *zap.Logger
	now          func() time.Time
}

// New cria o bot. authorizedChatID = 0 libera todos os chats.
func New(api API, store Store, scraper LinkScraper, alerts AlertRunner, authorizedChatID int64, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:          api,
		store:        store,
		scraper:      scraper,
		alerts:       alerts,
		authorizedID: authorizedChatID,
		log:          log,
		now:          time.Now,
	}
}

// Listen consome as atualizações do BotAPI até ctx ser cancelado
func Listen(ctx context.Context, api *tgbotapi.BotAPI, b *Bot) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	defer api.StopReceivingUpdates()

	b.Run(ctx, updates)
}

// Run trata as mensagens recebidas até o canal fechar ou ctx ser cancelado
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.HandleMessage(ctx, update.Message)
			}
		}
	}
}

// HandleMessage interpreta um comando e responde no mesmo chat
func (b *Bot) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	parts := strings.Fields(message.Text)
	if len(parts) == 0 {
		return
	}

	command := strings.ToLower(parts[0])
	// Remover @botname se presente
	if idx := strings.Index(command, "@"); idx > 0 {
		command = command[:idx]
	}

	chatID := message.Chat.ID
	isPublicCommand := command == "/start" || command == "/help"
	if !isPublicCommand && b.authorizedID != 0 && chatID != b.authorizedID {
		b.reply(chatID, "Você não está autorizado a usar este bot.")
		return
	}

	switch command {
	case "/start", "/help":
		b.handleHelp(chatID)
	case "/competitors":
		b.handleCompetitors(ctx, chatID)
	case "/check":
		b.handleCheck(ctx, chatID, parts[1:])
	case "/compare":
		b.handleCompare(ctx, chatID, parts[1:])
	case "/alerts":
		b.handleAlerts(ctx, chatID)
	default:
		b.reply(chatID, "Comando não reconhecido. Use /help para ver os comandos disponíveis.")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn("erro ao enviar mensagem", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// replyHTML tenta com formatação e, se o Telegram recusar, manda texto puro
func (b *Bot) replyHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("erro ao enviar mensagem com HTML", zap.Error(err))
		msg.ParseMode = ""
		if _, err := b.api.Send(msg); err != nil {
			b.log.Warn("erro ao enviar mensagem sem formatação", zap.Error(err))
		}
	}
}
