package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegramSenderFormatsMessage(t *testing.T) {
	bot := &fakeBot{}
	s := NewTelegramSender(bot, 42)

	require.NoError(t, s.Send(context.Background(), "ana@example.com", "Alerta", "corpo"))
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(42), bot.sent[0].ChatID)
	assert.Contains(t, bot.sent[0].Text, "Alerta")
	assert.Contains(t, bot.sent[0].Text, "corpo")
	assert.Contains(t, bot.sent[0].Text, "ana@example.com")
}

func TestTelegramSenderErrors(t *testing.T) {
	assert.Error(t, NewTelegramSender(&fakeBot{}, 0).Send(context.Background(), "", "a", "b"))
	assert.Error(t, NewTelegramSender(&fakeBot{err: errors.New("boom")}, 1).Send(context.Background(), "", "a", "b"))
}

func TestLogSenderNeverFails(t *testing.T) {
	assert.NoError(t, NewLogSender(zap.NewNop()).Send(context.Background(), "x", "y", "z"))
}
