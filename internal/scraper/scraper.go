package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"monitor-precos/internal/models"
)

// Adapter é a estratégia de extração de um site concorrente
type Adapter interface {
	// Name identifica o site nos logs e métricas
	Name() string
	// ExtractPrice devolve nil quando nenhum preço foi encontrado
	ExtractPrice(doc *goquery.Document) *models.PriceResult
	// IsProductLink diz se um href da página de listagem aponta para um produto
	IsProductLink(href, category string) bool
	// InsecureTLS liga a tolerância a certificados inválidos só para este site
	InsecureTLS() bool
}

type route struct {
	pattern string
	adapter Adapter
}

// Registry mapeia padrões de domínio para adapters, com um adapter genérico como padrão
type Registry struct {
	routes   []route
	fallback Adapter
}

// NewRegistry cria o registro com os sites conhecidos
func NewRegistry() *Registry {
	r := NewEmptyRegistry(NewGenericAdapter())
	r.Register("bigdeals.lk", NewBigDealsAdapter())
	r.Register("singersl.com", NewSingerAdapter())
	r.Register("singhagiri.lk", NewSinghagiriAdapter())
	r.Register("mercadolivre.com.br", NewMercadoLivreAdapter())
	return r
}

// NewEmptyRegistry cria um registro sem sites conhecidos
func NewEmptyRegistry(fallback Adapter) *Registry {
	return &Registry{fallback: fallback}
}

// Register associa um padrão de domínio a um adapter. O primeiro registro que casa vence.
func (r *Registry) Register(pattern string, adapter Adapter) {
	r.routes = append(r.routes, route{pattern: strings.ToLower(pattern), adapter: adapter})
}

// Lookup encontra o adapter apropriado para uma URL
func (r *Registry) Lookup(rawURL string) Adapter {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	host = strings.ToLower(host)

	for _, rt := range r.routes {
		if strings.Contains(host, rt.pattern) {
			return rt.adapter
		}
	}
	return r.fallback
}
