package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"backend/composer"
)

// CompatibilityService calls the external parts-compatibility oracle. Results
// are cached in Redis keyed by the selected-product signature, so repeated
// recomputes for the same cart distinct-set never hit the oracle twice within
// the TTL window.
type CompatibilityService struct {
	baseURL    string
	httpClient *http.Client
	cache      *redis.Client
	cacheTTL   time.Duration
}

// NewCompatibilityService builds the oracle client from environment config.
// COMPAT_API_URL is required; REDIS_ADDR is optional and caching is skipped
// without it.
func NewCompatibilityService() *CompatibilityService {
	svc := &CompatibilityService{
		baseURL:    strings.TrimRight(os.Getenv("COMPAT_API_URL"), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheTTL:   5 * time.Minute,
	}
	if ttl := os.Getenv("COMPAT_CACHE_TTL_SECONDS"); ttl != "" {
		if secs, err := strconv.Atoi(ttl); err == nil && secs > 0 {
			svc.cacheTTL = time.Duration(secs) * time.Second
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		svc.cache = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := svc.cache.Ping(context.Background()).Err(); err != nil {
			log.Printf("Redis not reachable, compatibility caching disabled: %v", err)
			svc.cache = nil
		}
	}
	return svc
}

// NewCompatibilityClient builds a client against an explicit base URL with no
// cache. Used by tests and one-off tooling.
func NewCompatibilityClient(baseURL string) *CompatibilityService {
	return &CompatibilityService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type compatibilityRequest struct {
	SelectedProducts []string `json:"selectedProducts"`
}

// compatRecord tolerates the oracle's loose product shape. Records are often
// partial stubs; the composer merges them with its catalog snapshot.
type compatRecord struct {
	ID          string          `json:"id"`
	AltID       string          `json:"_id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Model       string          `json:"model"`
	Quantity    int             `json:"quantity"`
	SellingRate float64         `json:"sellingRate"`
	Category    json.RawMessage `json:"category"`
}

func (r compatRecord) toProduct() composer.Product {
	p := composer.Product{
		ID:          r.ID,
		Name:        r.Name,
		Brand:       r.Brand,
		Model:       r.Model,
		Quantity:    r.Quantity,
		SellingRate: r.SellingRate,
	}
	if p.ID == "" {
		p.ID = r.AltID
	}
	// Category arrives either as a bare name or as an embedded object.
	if len(r.Category) > 0 {
		var name string
		if err := json.Unmarshal(r.Category, &name); err == nil {
			p.Category.Name = name
		} else {
			var cat composer.Category
			if err := json.Unmarshal(r.Category, &cat); err == nil {
				p.Category = cat
			}
		}
	}
	return p
}

// CompatibleProducts asks the oracle which products fit the given selection.
func (s *CompatibilityService) CompatibleProducts(ctx context.Context, selectedIDs []string) ([]composer.Product, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("COMPAT_API_URL is not configured")
	}
	if len(selectedIDs) == 0 {
		return nil, nil
	}

	key := cacheKey(selectedIDs)
	if cached, ok := s.cacheGet(ctx, key); ok {
		return cached, nil
	}

	body, err := json.Marshal(compatibilityRequest{SelectedProducts: selectedIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to encode compatibility request: %v", err)
	}

	url := s.baseURL + "/api/products/compatibility/sequential"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build compatibility request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("compatibility request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("compatibility service returned status %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode compatibility response: %v", err)
	}

	products, err := normalizeResponse(raw)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, products)
	return products, nil
}

// normalizeResponse accepts the shapes the oracle has been seen to return: a
// bare array, or an object wrapping the list under compatibleProducts, data
// or products.
func normalizeResponse(raw json.RawMessage) ([]composer.Product, error) {
	var records []compatRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return recordsToProducts(records), nil
	}

	var wrapped struct {
		CompatibleProducts []compatRecord `json:"compatibleProducts"`
		Data               []compatRecord `json:"data"`
		Products           []compatRecord `json:"products"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("unrecognized compatibility response shape: %v", err)
	}
	switch {
	case wrapped.CompatibleProducts != nil:
		records = wrapped.CompatibleProducts
	case wrapped.Data != nil:
		records = wrapped.Data
	case wrapped.Products != nil:
		records = wrapped.Products
	default:
		return nil, fmt.Errorf("unrecognized compatibility response shape")
	}
	return recordsToProducts(records), nil
}

func recordsToProducts(records []compatRecord) []composer.Product {
	products := make([]composer.Product, 0, len(records))
	for _, r := range records {
		p := r.toProduct()
		if p.ID == "" {
			continue
		}
		products = append(products, p)
	}
	return products
}

// cacheKey is order-insensitive: the same distinct-set always maps to the
// same entry.
func cacheKey(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return "compat:" + strings.Join(sorted, ",")
}

func (s *CompatibilityService) cacheGet(ctx context.Context, key string) ([]composer.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	val, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Compatibility cache read failed: %v", err)
		}
		return nil, false
	}
	var products []composer.Product
	if err := json.Unmarshal(val, &products); err != nil {
		log.Printf("Compatibility cache entry corrupt, ignoring: %v", err)
		return nil, false
	}
	return products, true
}

func (s *CompatibilityService) cacheSet(ctx context.Context, key string, products []composer.Product) {
	if s.cache == nil {
		return
	}
	val, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, val, s.cacheTTL).Err(); err != nil {
		log.Printf("Compatibility cache write failed: %v", err)
	}
}
