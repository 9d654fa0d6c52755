package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"monitor-precos/config"
	"monitor-precos/internal/database"
	"monitor-precos/internal/models"
	"monitor-precos/internal/scraper"
)

// Store é a parte do banco usada pelo monitor
type Store interface {
	HistoryStore
	GetActiveLink(ctx context.Context, id int64) (*models.CompetitorProductLink, error)
	GetActiveLinkByURL(ctx context.Context, url string) (*models.CompetitorProductLink, error)
	ListActiveLinks(ctx context.Context) ([]models.CompetitorProductLink, error)
}

// Fetcher baixa páginas respeitando o rate limit por host
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, kind scraper.PageKind, insecureTLS bool) (*goquery.Document, error)
}

// AlertRunner avalia os alertas depois de cada passada
type AlertRunner interface {
	EvaluateAll(ctx context.Context) ([]models.TriggeredAlert, error)
}

// RunSummary resume uma passada de scraping
type RunSummary struct {
	Total   int
	Updated int
	Errored int
	// Skipped conta links descobertos que não estão sendo monitorados
	Skipped int
}

// SuccessRate retorna a taxa de sucesso em porcentagem
func (s RunSummary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Updated) / float64(s.Total) * 100
}

func (s *RunSummary) add(o RunSummary) {
	s.Total += o.Total
	s.Updated += o.Updated
	s.Errored += o.Errored
	s.Skipped += o.Skipped
}

// Monitor orquestra as passadas de scraping: listagens, links e ingestão.
// Cada passada é sequencial; passadas diferentes podem rodar ao mesmo tempo.
type Monitor struct {
	store    Store
	fetcher  Fetcher
	registry *scraper.Registry
	ingestor *Ingestor
	alerts   AlertRunner
	targets  []config.ScrapeTarget
	interval time.Duration
	log      *zap.Logger
}

// New cria uma nova instância do monitor
func New(store Store, fetcher Fetcher, registry *scraper.Registry, alerts AlertRunner,
	targets []config.ScrapeTarget, interval time.Duration, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Monitor{
		store:    store,
		fetcher:  fetcher,
		registry: registry,
		ingestor: NewIngestor(store, log),
		alerts:   alerts,
		targets:  targets,
		interval: interval,
		log:      log,
	}
}

// Start roda uma passada imediatamente e depois a cada intervalo, até ctx ser cancelado
func (m *Monitor) Start(ctx context.Context) {
	m.log.Info("monitor iniciado", zap.Duration("interval", m.interval))

	m.RunOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor encerrado")
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce varre as categorias, atualiza os links monitorados que não apareceram
// nas listagens e depois avalia os alertas.
func (m *Monitor) RunOnce(ctx context.Context) RunSummary {
	start := time.Now()
	done := make(map[int64]bool)

	summary := m.sweep(ctx, done)
	summary.add(m.refresh(ctx, done))
	passDuration.WithLabelValues("full").Observe(time.Since(start).Seconds())

	m.logSummary("passada completa", summary)

	if m.alerts != nil {
		triggered, err := m.alerts.EvaluateAll(ctx)
		if err != nil {
			m.log.Error("erro ao avaliar alertas", zap.Error(err))
		} else if len(triggered) > 0 {
			m.log.Info("alertas disparados", zap.Int("count", len(triggered)))
		}
	}
	return summary
}

// Sweep percorre as listagens configuradas e ingere os produtos monitorados encontrados
func (m *Monitor) Sweep(ctx context.Context) RunSummary {
	start := time.Now()
	summary := m.sweep(ctx, make(map[int64]bool))
	passDuration.WithLabelValues("sweep").Observe(time.Since(start).Seconds())
	m.logSummary("varredura de categorias", summary)
	return summary
}

// RefreshLinks atualiza todos os links ativos de concorrentes ativos
func (m *Monitor) RefreshLinks(ctx context.Context) RunSummary {
	start := time.Now()
	summary := m.refresh(ctx, make(map[int64]bool))
	passDuration.WithLabelValues("refresh").Observe(time.Since(start).Seconds())
	m.logSummary("atualização de links", summary)
	return summary
}

// ScrapeLink faz o scraping imediato de um link. Retorna true se um preço foi gravado.
func (m *Monitor) ScrapeLink(ctx context.Context, linkID int64) (bool, error) {
	link, err := m.store.GetActiveLink(ctx, linkID)
	if err != nil {
		return false, fmt.Errorf("erro ao buscar link %d: %w", linkID, err)
	}
	return m.scrapeLink(ctx, *link) == nil, nil
}

func (m *Monitor) sweep(ctx context.Context, done map[int64]bool) RunSummary {
	var summary RunSummary
	for _, target := range m.targets {
		if ctx.Err() != nil {
			break
		}
		summary.add(m.sweepTarget(ctx, target, done))
	}
	return summary
}

func (m *Monitor) sweepTarget(ctx context.Context, target config.ScrapeTarget, done map[int64]bool) RunSummary {
	var summary RunSummary
	adapter := m.registry.Lookup(target.URL)
	log := m.log.With(zap.String("site", target.Site), zap.String("category", target.Category))

	pages := target.Pages
	if pages <= 0 {
		pages = 1
	}

	for page := 1; page <= pages; page++ {
		pageURL := scraper.PageURL(target.URL, page)
		doc, err := m.fetcher.Fetch(ctx, pageURL, scraper.ListingPage, adapter.InsecureTLS())
		if err != nil {
			log.Warn("erro ao buscar listagem", zap.String("url", pageURL), zap.Error(err))
			continue
		}

		links := scraper.DiscoverLinks(doc, pageURL, adapter, target.Category)
		if len(links) == 0 {
			log.Info("nenhum link de produto encontrado", zap.String("url", pageURL))
			continue
		}
		log.Debug("links de produto encontrados", zap.String("url", pageURL), zap.Int("count", len(links)))

		for _, productURL := range links {
			if ctx.Err() != nil {
				return summary
			}

			link, err := m.store.GetActiveLinkByURL(ctx, productURL)
			if errors.Is(err, database.ErrNotFound) {
				summary.Skipped++
				scrapeResults.WithLabelValues(adapter.Name(), outcomeUntracked).Inc()
				continue
			}
			if err != nil {
				summary.Total++
				summary.Errored++
				scrapeResults.WithLabelValues(adapter.Name(), outcomeStoreError).Inc()
				log.Warn("erro ao buscar link monitorado", zap.String("url", productURL), zap.Error(err))
				continue
			}
			if done[link.ID] {
				continue
			}

			summary.Total++

			if m.scrapeLink(ctx, *link) != nil {
				summary.Errored++
				continue
			}
			done[link.ID] = true
			summary.Updated++
		}
	}
	return summary
}

func (m *Monitor) refresh(ctx context.Context, done map[int64]bool) RunSummary {
	var summary RunSummary

	links, err := m.store.ListActiveLinks(ctx)
	if err != nil {
		m.log.Error("erro ao listar links monitorados", zap.Error(err))
		return summary
	}

	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		if done[link.ID] {
			continue
		}
		summary.Total++
		if m.scrapeLink(ctx, link) != nil {
			summary.Errored++
			continue
		}
		done[link.ID] = true
		summary.Updated++
	}
	return summary
}

// scrapeLink busca, extrai e ingere um link. Falhas são registradas e devolvidas,
// nunca interrompem a passada.
func (m *Monitor) scrapeLink(ctx context.Context, link models.CompetitorProductLink) error {
	adapter := m.registry.Lookup(link.URL)
	log := m.log.With(
		zap.Int64("link_id", link.ID),
		zap.String("url", link.URL),
		zap.String("site", adapter.Name()),
	)

	doc, err := m.fetcher.Fetch(ctx, link.URL, scraper.ProductPage, adapter.InsecureTLS())
	if err != nil {
		scrapeResults.WithLabelValues(adapter.Name(), outcomeFetchError).Inc()
		log.Warn("erro ao buscar página do produto", zap.Error(err))
		return err
	}

	result := adapter.ExtractPrice(doc)
	if result == nil {
		scrapeResults.WithLabelValues(adapter.Name(), outcomeMiss).Inc()
		log.Warn("preço não encontrado na página")
		return errExtractionMiss
	}

	if _, err := m.ingestor.Ingest(ctx, link, *result); err != nil {
		scrapeResults.WithLabelValues(adapter.Name(), outcomeStoreError).Inc()
		log.Error("erro ao gravar histórico de preço", zap.Error(err))
		return err
	}

	scrapeResults.WithLabelValues(adapter.Name(), outcomeIngested).Inc()
	log.Info("preço atualizado", zap.Float64("price", result.Price))
	return nil
}

var errExtractionMiss = errors.New("preço não encontrado na página")

func (m *Monitor) logSummary(msg string, s RunSummary) {
	m.log.Info(msg,
		zap.Int("updated", s.Updated),
		zap.Int("errors", s.Errored),
		zap.Int("total", s.Total),
		zap.Int("skipped", s.Skipped),
		zap.Float64("success_rate", s.SuccessRate()),
	)
}
