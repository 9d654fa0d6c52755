package alerts

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"monitor-precos/internal/models"
	"monitor-precos/internal/notify"
)

var alertsTriggered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "price_monitor_alerts_triggered_total",
	Help: "Alertas de preço disparados.",
})

// Store é a parte do banco usada na avaliação de alertas
type Store interface {
	PendingAlerts(ctx context.Context, userID int64) ([]models.PriceAlert, error)
	CurrentProductPrice(ctx context.Context, productID int64) (float64, error)
	MarkAlertTriggered(ctx context.Context, alertID int64) (bool, error)
}

// Evaluator compara preços atuais com os limites dos usuários.
// Um alerta dispara uma única vez; só volta a valer quando o usuário o redefine.
type Evaluator struct {
	store  Store
	sender notify.Sender
	log    *zap.Logger
}

// NewEvaluator cria o avaliador de alertas
func NewEvaluator(store Store, sender notify.Sender, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{store: store, sender: sender, log: log}
}

// Evaluate avalia os alertas pendentes de um usuário
func (e *Evaluator) Evaluate(ctx context.Context, userID int64) ([]models.TriggeredAlert, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("usuário inválido: %d", userID)
	}
	return e.evaluate(ctx, userID)
}

// EvaluateAll avalia os alertas pendentes de todos os usuários
func (e *Evaluator) EvaluateAll(ctx context.Context) ([]models.TriggeredAlert, error) {
	return e.evaluate(ctx, 0)
}

// evaluate continua depois de falhas individuais; os erros voltam agregados
func (e *Evaluator) evaluate(ctx context.Context, userID int64) ([]models.TriggeredAlert, error) {
	pending, err := e.store.PendingAlerts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar alertas: %w", err)
	}

	var triggered []models.TriggeredAlert
	var errs []error
	for _, alert := range pending {
		event, err := e.evaluateOne(ctx, alert)
		if err != nil {
			e.log.Warn("erro ao avaliar alerta", zap.Int64("alert_id", alert.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if event != nil {
			triggered = append(triggered, *event)
		}
	}
	return triggered, errors.Join(errs...)
}

func (e *Evaluator) evaluateOne(ctx context.Context, alert models.PriceAlert) (*models.TriggeredAlert, error) {
	current, err := e.store.CurrentProductPrice(ctx, alert.ProductID)
	if err != nil {
		return nil, fmt.Errorf("alerta %d: %w", alert.ID, err)
	}
	// preço zero significa preço desconhecido, não produto de graça
	if current <= 0 || current > alert.AlertPrice {
		return nil, nil
	}

	// marca antes de notificar: se outra execução já marcou, não notifica de novo
	marked, err := e.store.MarkAlertTriggered(ctx, alert.ID)
	if err != nil {
		return nil, fmt.Errorf("alerta %d: %w", alert.ID, err)
	}
	if !marked {
		return nil, nil
	}
	alertsTriggered.Inc()

	event := &models.TriggeredAlert{
		AlertID:      alert.ID,
		UserID:       alert.UserID,
		ProductID:    alert.ProductID,
		ProductName:  alert.ProductName,
		AlertPrice:   alert.AlertPrice,
		CurrentPrice: current,
	}

	if e.sender != nil {
		subject, body := FormatMessage(*event)
		if err := e.sender.Send(ctx, alert.UserEmail, subject, body); err != nil {
			// o alerta continua marcado; falha de entrega não é refeita
			e.log.Error("erro ao enviar notificação de alerta",
				zap.Int64("alert_id", alert.ID),
				zap.String("to", alert.UserEmail),
				zap.Error(err))
		}
	}
	return event, nil
}

// FormatMessage monta o assunto e o corpo da notificação
func FormatMessage(event models.TriggeredAlert) (subject, body string) {
	subject = fmt.Sprintf("Alerta de preço: %s baixou de preço!", event.ProductName)
	body = fmt.Sprintf(
		"O preço de %s caiu para Rs. %.2f!\n\n"+
			"Você definiu um alerta em Rs. %.2f e o preço atual atingiu esse limite.",
		event.ProductName, event.CurrentPrice, event.AlertPrice,
	)
	return subject, body
}
