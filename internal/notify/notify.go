package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender entrega uma notificação de texto simples
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogSender só registra a mensagem no log; usado quando não há Telegram configurado
type LogSender struct {
	log *zap.Logger
}

// NewLogSender cria o sender de log
func NewLogSender(log *zap.Logger) *LogSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, recipient, subject, body string) error {
	s.log.Info("notificação",
		zap.String("to", recipient),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// chattableSender é a parte do BotAPI usada para enviar mensagens
type chattableSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender envia as notificações para o chat configurado
type TelegramSender struct {
	bot    chattableSender
	chatID int64
}

// NewTelegramSender cria o sender do Telegram
func NewTelegramSender(bot chattableSender, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

func (s *TelegramSender) Send(_ context.Context, recipient, subject, body string) error {
	if s.chatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID não configurado")
	}
	text := fmt.Sprintf("%s\n\n%s", subject, body)
	if recipient != "" {
		text += fmt.Sprintf("\n\nDestinatário: %s", recipient)
	}
	if _, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, text)); err != nil {
		return fmt.Errorf("erro ao enviar mensagem: %w", err)
	}
	return nil
}
