package scraper

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// PageKind define o atraso aplicado antes da requisição
type PageKind int

const (
	ProductPage PageKind = iota
	ListingPage
)

func (k PageKind) String() string {
	if k == ListingPage {
		return "listing"
	}
	return "product"
}

// Delay é um intervalo de espera aleatória uniforme em [Min, Max]
type Delay struct {
	Min time.Duration
	Max time.Duration
}

// FetcherConfig controla timeouts e a disciplina de rate limit
type FetcherConfig struct {
	Timeout      time.Duration
	ProductDelay Delay
	ListingDelay Delay
	// HostInterval é o espaçamento mínimo entre requisições ao mesmo host (token bucket)
	HostInterval time.Duration
	UserAgent    string
	// RetryMax é o número de novas tentativas após timeout, 429 ou 5xx
	RetryMax int
	// RetryBackoff é a base da espera entre tentativas (base * tentativa², mais jitter)
	RetryBackoff time.Duration
}

// DefaultFetcherConfig retorna os valores usados em produção
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:      30 * time.Second,
		ProductDelay: Delay{Min: 2 * time.Second, Max: 5 * time.Second},
		ListingDelay: Delay{Min: 1 * time.Second, Max: 3 * time.Second},
		HostInterval: time.Second,
		UserAgent:    defaultUserAgent,
		RetryMax:     2,
		RetryBackoff: 2 * time.Second,
	}
}

// FetchError é a falha de transporte (rede, timeout, TLS ou status HTTP)
type FetchError struct {
	URL        string
	StatusCode int
	Err        error

	retryAfter time.Duration
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Timeout diz se a falha foi por tempo esgotado
func (e *FetchError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// retryable: só vale tentar de novo em timeout, 408, 429 e 5xx
func (e *FetchError) retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500 && e.StatusCode <= 599:
		return true
	case e.StatusCode != 0:
		return false
	}
	return e.Timeout()
}

// hostGate serializa as requisições a um host: uma em andamento por vez.
// O slot é um canal para que quem espera possa desistir quando o ctx é cancelado.
type hostGate struct {
	slot    chan struct{}
	limiter *rate.Limiter
}

func (g *hostGate) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *hostGate) release() { <-g.slot }

// Fetcher busca páginas com cabeçalhos de navegador e atraso obrigatório antes de cada requisição
type Fetcher struct {
	cfg    FetcherConfig
	strict *http.Client
	lax    *http.Client
	log    *zap.Logger

	mu    sync.Mutex
	hosts map[string]*hostGate

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewFetcher cria um fetcher com cliente próprio; nada é compartilhado globalmente
func NewFetcher(cfg FetcherConfig, log *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if log == nil {
		log = zap.NewNop()
	}

	laxTransport := http.DefaultTransport.(*http.Transport).Clone()
	laxTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in por adapter

	return &Fetcher{
		cfg:    cfg,
		strict: &http.Client{Timeout: cfg.Timeout},
		lax:    &http.Client{Timeout: cfg.Timeout, Transport: laxTransport},
		log:    log,
		hosts:  make(map[string]*hostGate),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch baixa e interpreta uma página. Qualquer falha vira *FetchError.
// Timeouts, 429 e 5xx são tentados de novo até RetryMax vezes sem liberar o host.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, kind PageKind, insecureTLS bool) (*goquery.Document, error) {
	cleanURL := strings.Split(rawURL, "#")[0]
	u, err := url.Parse(cleanURL)
	if err != nil || u.Host == "" {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("url inválida: %v", err)}
	}

	gate := f.gate(strings.ToLower(u.Host))
	if err := gate.acquire(ctx); err != nil {
		return nil, &FetchError{URL: cleanURL, Err: err}
	}
	defer gate.release()

	client := f.strict
	if insecureTLS {
		client = f.lax
	}

	var lastErr *FetchError
	for attempt := 0; attempt <= f.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			wait := f.backoff(attempt, lastErr.retryAfter)
			f.log.Debug("nova tentativa",
				zap.String("url", cleanURL),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			if err := sleepContext(ctx, wait); err != nil {
				return nil, &FetchError{URL: cleanURL, Err: err}
			}
		}

		if err := gate.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: cleanURL, Err: err}
		}
		if err := sleepContext(ctx, f.jitter(kind)); err != nil {
			return nil, &FetchError{URL: cleanURL, Err: err}
		}

		doc, fetchErr := f.do(ctx, client, cleanURL, kind)
		if fetchErr == nil {
			return doc, nil
		}
		lastErr = fetchErr
		if ctx.Err() != nil || !fetchErr.retryable() {
			return nil, fetchErr
		}
	}
	return nil, lastErr
}

// do faz uma única requisição
func (f *Fetcher) do(ctx context.Context, client *http.Client, cleanURL string, kind PageKind) (*goquery.Document, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cleanURL, nil)
	if err != nil {
		return nil, &FetchError{URL: cleanURL, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: cleanURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:        cleanURL,
			StatusCode: resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: cleanURL, Err: err}
	}

	f.log.Debug("página baixada",
		zap.String("url", cleanURL),
		zap.Stringer("kind", kind),
		zap.Duration("elapsed", time.Since(start)))
	return doc, nil
}

// maxRetryAfter limita o quanto um Retry-After do site pode segurar o host
const maxRetryAfter = time.Minute

// parseRetryAfter aceita segundos ou data HTTP; valor inválido vira 0
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = at.Sub(now)
	}
	if d < 0 {
		return 0
	}
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

// backoff cresce com o quadrado da tentativa; Retry-After maior prevalece
func (f *Fetcher) backoff(attempt int, retryAfter time.Duration) time.Duration {
	base := f.cfg.RetryBackoff
	d := base*time.Duration(attempt*attempt) + f.between(0, base/2)
	if retryAfter > d {
		return retryAfter
	}
	return d
}

func (f *Fetcher) gate(host string) *hostGate {
	f.mu.Lock()
	defer f.mu.Unlock()

	g, ok := f.hosts[host]
	if !ok {
		limit := rate.Inf
		if f.cfg.HostInterval > 0 {
			limit = rate.Every(f.cfg.HostInterval)
		}
		g = &hostGate{slot: make(chan struct{}, 1), limiter: rate.NewLimiter(limit, 1)}
		f.hosts[host] = g
	}
	return g
}

func (f *Fetcher) jitter(kind PageKind) time.Duration {
	d := f.cfg.ProductDelay
	if kind == ListingPage {
		d = f.cfg.ListingDelay
	}
	return f.between(d.Min, d.Max)
}

// between sorteia uma duração uniforme em [lo, hi]
func (f *Fetcher) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}

	f.rndMu.Lock()
	defer f.rndMu.Unlock()
	return lo + time.Duration(f.rnd.Int63n(int64(hi-lo)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
