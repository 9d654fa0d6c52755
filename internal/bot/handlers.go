package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"monitor-precos/internal/database"
	"monitor-precos/internal/monitor"
)

const helpText = `🤖 <b>Monitor de Preços de Concorrentes</b>

<b>Comandos disponíveis:</b>

<b>/competitors</b> - Listar concorrentes com produtos monitorados e média de 7 dias

<b>/check &lt;link_id&gt;</b> - Buscar agora o preço de um link de concorrente
Exemplo: /check 1

<b>/compare &lt;produto_id&gt;</b> - Comparar nosso preço com os concorrentes
Exemplo: /compare 12

<b>/alerts</b> - Avaliar os alertas de preço pendentes

<b>/help</b> - Mostrar esta mensagem de ajuda
`

func (b *Bot) handleHelp(chatID int64) {
	b.replyHTML(chatID, helpText)
}

func parseID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, errors.New("faltando id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id inválido")
	}
	return id, nil
}

func (b *Bot) handleCompetitors(ctx context.Context, chatID int64) {
	stats, err := b.store.ListCompetitorStats(ctx, b.now().Add(-7*24*time.Hour))
	if err != nil {
		b.reply(chatID, fmt.Sprintf("❌ Erro ao listar concorrentes: %v", err))
		return
	}
	if len(stats) == 0 {
		b.reply(chatID, "📋 Nenhum concorrente cadastrado no momento.")
		return
	}

	var response strings.Builder
	response.WriteString("📋 <b>Concorrentes:</b>\n\n")
	for _, s := range stats {
		response.WriteString(fmt.Sprintf("🆔 <b>ID: %d</b> %s\n", s.ID, html.EscapeString(s.Name)))
		response.WriteString(fmt.Sprintf("📦 Produtos monitorados: %d\n", s.TrackedProducts))
		if s.AvgCompetitorPrice > 0 {
			response.WriteString(fmt.Sprintf("💰 Média 7 dias: Rs. %.2f\n", s.AvgCompetitorPrice))
		}
		if s.LastPriceUpdate != nil {
			response.WriteString(fmt.Sprintf("🕐 Última atualização: %s\n", s.LastPriceUpdate.Format("02/01/2006 15:04")))
		} else {
			response.WriteString("🕐 Última atualização: Nunca\n")
		}
		response.WriteString("\n")
	}
	b.replyHTML(chatID, response.String())
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64, args []string) {
	linkID, err := parseID(args)
	if err != nil {
		b.reply(chatID, "❌ Formato incorreto.\n\nUso: /check <link_id>\n\nExemplo: /check 1")
		return
	}

	link, err := b.store.GetActiveLink(ctx, linkID)
	if err != nil {
		b.reply(chatID, "❌ Link não encontrado.")
		return
	}

	// Enviar mensagem de "verificando"
	sentMessageID := 0
	if sent, err := b.api.Send(tgbotapi.NewMessage(chatID, "⏳ Verificando preço...")); err == nil {
		sentMessageID = sent.MessageID
	}

	var response string
	ok, err := b.scraper.ScrapeLink(ctx, linkID)
	switch {
	case err != nil:
		response = fmt.Sprintf("❌ Erro ao verificar preço: %v", err)
	case !ok:
		response = "❌ Não foi possível obter o preço agora. Veja os logs para detalhes."
	default:
		response = b.describeLatest(ctx, link.ID, link.CompetitorName, link.URL)
	}

	if sentMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, sentMessageID, response)
		edit.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(edit); err == nil {
			return
		}
		b.log.Warn("erro ao editar mensagem, enviando nova", zap.Int64("chat_id", chatID))
	}
	b.replyHTML(chatID, response)
}

func (b *Bot) describeLatest(ctx context.Context, linkID int64, competitor, url string) string {
	latest, err := b.store.LatestPrice(ctx, linkID)
	if err != nil {
		return fmt.Sprintf("❌ Erro ao buscar preço atualizado: %v", err)
	}

	response := fmt.Sprintf(
		"📊 <b>%s</b>\n\n"+
			"Preço atual: Rs. %.2f\n"+
			"Disponibilidade: %s\n"+
			"Link: %s",
		html.EscapeString(competitor), latest.Price, html.EscapeString(latest.Availability), url,
	)
	if latest.OldPrice != nil && *latest.OldPrice > latest.Price {
		discount := (*latest.OldPrice - latest.Price) / *latest.OldPrice * 100
		response += fmt.Sprintf("\n\n🎉 <b>%.1f%% OFF</b> (de Rs. %.2f)", discount, *latest.OldPrice)
	}
	return response
}

func (b *Bot) handleCompare(ctx context.Context, chatID int64, args []string) {
	productID, err := parseID(args)
	if err != nil {
		b.reply(chatID, "❌ Formato incorreto.\n\nUso: /compare <produto_id>\n\nExemplo: /compare 12")
		return
	}

	cmp, err := monitor.Compare(ctx, b.store, productID)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, "❌ Produto não encontrado.")
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("❌ Erro ao comparar preços: %v", err))
		return
	}

	var response strings.Builder
	response.WriteString(fmt.Sprintf("📊 <b>%s</b>\nNosso preço: Rs. %.2f\n\n",
		html.EscapeString(cmp.Product.Name), cmp.Product.CurrentPrice))

	if len(cmp.Competitors) == 0 {
		response.WriteString("Nenhum concorrente monitorado para este produto.")
		b.replyHTML(chatID, response.String())
		return
	}

	for _, c := range cmp.Competitors {
		if c.CurrentPrice == nil {
			response.WriteString(fmt.Sprintf("• %s: sem preço ainda\n", html.EscapeString(c.CompetitorName)))
			continue
		}
		line := fmt.Sprintf("• %s: Rs. %.2f", html.EscapeString(c.CompetitorName), *c.CurrentPrice)
		if c.DifferencePct != nil {
			line += fmt.Sprintf(" (%+.2f%%)", *c.DifferencePct)
		}
		response.WriteString(line + "\n")
	}

	m := cmp.Market
	response.WriteString(fmt.Sprintf("\nMais baratos: %d | Mais caros: %d", m.CheaperOptions, m.MoreExpensive))
	if m.Lowest != nil && m.Highest != nil && m.Average != nil {
		response.WriteString(fmt.Sprintf("\nMín: Rs. %.2f | Máx: Rs. %.2f | Média: Rs. %.2f", *m.Lowest, *m.Highest, *m.Average))
	}
	b.replyHTML(chatID, response.String())
}

func (b *Bot) handleAlerts(ctx context.Context, chatID int64) {
	triggered, err := b.alerts.EvaluateAll(ctx)
	if err != nil {
		b.log.Warn("erro ao avaliar alertas pelo bot", zap.Error(err))
	}
	if len(triggered) == 0 {
		if err != nil {
			b.reply(chatID, fmt.Sprintf("❌ Erro ao avaliar alertas: %v", err))
			return
		}
		b.reply(chatID, "🔔 Nenhum alerta disparado.")
		return
	}

	var response strings.Builder
	response.WriteString(fmt.Sprintf("🔔 <b>%d alerta(s) disparado(s):</b>\n\n", len(triggered)))
	for _, t := range triggered {
		response.WriteString(fmt.Sprintf("• %s: Rs. %.2f (limite Rs. %.2f)\n",
			html.EscapeString(t.ProductName), t.CurrentPrice, t.AlertPrice))
	}
	b.replyHTML(chatID, response.String())
}
