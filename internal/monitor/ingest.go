package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"monitor-precos/internal/models"
)

// HistoryStore é a parte do banco usada pela ingestão
type HistoryStore interface {
	InsertPriceHistory(ctx context.Context, r models.PriceHistoryRecord) (int64, error)
	TouchCompetitor(ctx context.Context, competitorID int64, at time.Time) error
	FillLinkProductName(ctx context.Context, linkID int64, name string) error
}

// Ingestor grava cada resultado de scraping como uma observação imutável
type Ingestor struct {
	store HistoryStore
	log   *zap.Logger
}

// NewIngestor cria o ingestor
func NewIngestor(store HistoryStore, log *zap.Logger) *Ingestor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{store: store, log: log}
}

// Ingest anexa um registro de histórico ao link e, se der certo, atualiza o
// last_scraped_at do concorrente. Valores repetidos geram registros repetidos.
// Só a falha do insert conta como erro: o preço já gravado vale mesmo que o
// carimbo do concorrente ou o nome do produto não sejam atualizados.
func (i *Ingestor) Ingest(ctx context.Context, link models.CompetitorProductLink, res models.PriceResult) (int64, error) {
	id, err := i.store.InsertPriceHistory(ctx, models.PriceHistoryRecord{
		LinkID:       link.ID,
		Price:        res.Price,
		OldPrice:     res.OldPrice,
		Availability: res.Availability,
		ScrapedAt:    res.ScrapedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("link %d: %w", link.ID, err)
	}

	if err := i.store.TouchCompetitor(ctx, link.CompetitorID, res.ScrapedAt); err != nil {
		i.log.Warn("erro ao atualizar last_scraped_at do concorrente",
			zap.Int64("competitor_id", link.CompetitorID),
			zap.Int64("link_id", link.ID),
			zap.Error(err))
	}

	if link.ProductName == "" && res.Title != "" {
		if err := i.store.FillLinkProductName(ctx, link.ID, res.Title); err != nil {
			i.log.Warn("erro ao gravar nome do produto do concorrente", zap.Int64("link_id", link.ID), zap.Error(err))
		}
	}
	return id, nil
}
