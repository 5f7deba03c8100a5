// cache.go — LRU-кэш результатов поиска товаров с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/easybuy/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eb_search_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш поиска товаров.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eb_search_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша поиска товаров.",
	})
)

// SearchCache — LRU-кэш результатов поиска товаров с автоматическим TTL.
// Каждый экземпляр API имеет собственный in-memory кэш.
// Любая запись в каталог сбрасывает кэш целиком (Purge).
type SearchCache struct {
	cache *expirable.LRU[string, []*model.Product]
}

// NewSearchCache создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewSearchCache(maxSize int, ttl time.Duration) *SearchCache {
	cache := expirable.NewLRU[string, []*model.Product](maxSize, nil, ttl)
	return &SearchCache{cache: cache}
}

// cacheKey нормализует ключевое слово поиска (регистр и пробелы).
func cacheKey(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// Get возвращает результат поиска из кэша по ключевому слову.
// Возвращает (результат, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *SearchCache) Get(keyword string) ([]*model.Product, bool) {
	val, ok := c.cache.Get(cacheKey(keyword))
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set сохраняет результат поиска в кэше.
func (c *SearchCache) Set(keyword string, products []*model.Product) {
	c.cache.Add(cacheKey(keyword), products)
}

// Purge сбрасывает кэш целиком (инвалидация при изменении каталога).
func (c *SearchCache) Purge() {
	c.cache.Purge()
}
