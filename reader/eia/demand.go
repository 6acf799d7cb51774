package eia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"gridflow/config"
	"gridflow/logger"
	"gridflow/models"
	"gridflow/secrets"
)

// Reader pulls daily demand observations from the EIA v2 API, one region at a
// time, paging by offset until the server-reported total is reached.
type Reader struct {
	config  *config.Config
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Log
	apiKey  string
}

// NewReader creates a Reader with a pooled HTTP transport and the API key
// resolved from the given provider. A missing credential fails construction
// so the run aborts before any network call.
func NewReader(cfg *config.Config, creds secrets.Provider) (*Reader, error) {
	log := logger.GetLogger()

	apiKey, err := creds.APIKey()
	if err != nil {
		return nil, fmt.Errorf("retrieve api key: %w", err)
	}

	pool := cfg.Source.EIA.ConnectionPool
	transport := &http.Transport{
		MaxIdleConns:        pool.MaxIdleConns,
		MaxIdleConnsPerHost: pool.MaxIdleConns,
		MaxConnsPerHost:     pool.MaxConnsPerHost,
		IdleConnTimeout:     pool.IdleConnTimeout,
		DisableCompression:  false,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Source.EIA.Timeout,
	}

	var limiter *rate.Limiter
	if rl := cfg.Source.EIA.RateLimit; rl.RequestsPerSecond > 0 {
		burst := rl.BurstSize
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), burst)
	}

	reader := &Reader{
		config:  cfg,
		client:  client,
		limiter: limiter,
		log:     log,
		apiKey:  apiKey,
	}

	log.WithComponent("eia_reader").WithFields(logger.Fields{
		"url":       cfg.Source.EIA.URL,
		"page_size": cfg.Source.EIA.PageSize,
		"timeout":   cfg.Source.EIA.Timeout,
	}).Info("eia reader initialized")

	return reader, nil
}

// FetchAll drains every configured region sequentially, one region fully
// before the next, and returns the per-region results in configuration order.
func (r *Reader) FetchAll(ctx context.Context, window models.DateWindow) []models.FetchResult {
	log := r.log.WithComponent("eia_reader").WithFields(logger.Fields{"operation": "fetch_all"})

	results := make([]models.FetchResult, 0, len(r.config.Source.EIA.Regions))
	total := 0
	for _, region := range r.config.Source.EIA.Regions {
		log.WithFields(logger.Fields{"region": region}).Info("fetching region")
		result := r.FetchRegion(ctx, region, window)
		results = append(results, result)
		total += len(result.Records)
		log.WithFields(logger.Fields{
			"region":       region,
			"records":      len(result.Records),
			"pages":        result.Pages,
			"truncated":    result.Truncated,
			"total_so_far": total,
		}).Info("region fetched")
	}

	log.WithFields(logger.Fields{"regions": len(results), "records": total}).Info("all regions fetched")
	return results
}

// FetchRegion pages through one region's observations inside the window.
// Transport and payload-shape failures truncate the sequence instead of
// failing the run; callers see the partial records plus the Truncated flag.
func (r *Reader) FetchRegion(ctx context.Context, region string, window models.DateWindow) models.FetchResult {
	log := r.log.WithComponent("eia_reader").WithFields(logger.Fields{
		"region":    region,
		"operation": "fetch_region",
	})

	result := models.FetchResult{Region: region}
	pageSize := r.config.Source.EIA.PageSize
	offset := 0

	for {
		if ctx.Err() != nil {
			log.Warn("fetch cancelled")
			result.Truncated = true
			break
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				log.WithError(err).Warn("rate limiter wait interrupted")
				result.Truncated = true
				break
			}
		}

		records, total, err := r.fetchPage(ctx, log, region, window, offset, pageSize)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"offset": offset}).Warn("page fetch failed, truncating region")
			result.Truncated = true
			break
		}

		result.Pages++
		result.Total = total
		result.Records = append(result.Records, records...)

		log.WithFields(logger.Fields{
			"offset":       offset,
			"page_records": len(records),
			"accumulated":  len(result.Records),
			"total":        total,
		}).Debug("page fetched")

		if len(result.Records) >= total {
			break
		}
		if len(records) == 0 {
			// Server reported more rows than it will serve; bail rather than spin.
			log.WithFields(logger.Fields{"accumulated": len(result.Records), "total": total}).Warn("empty page before reported total, truncating region")
			result.Truncated = true
			break
		}
		offset += pageSize
	}

	if result.Truncated {
		logger.IncrementRegionTruncated()
	}
	return result
}

func (r *Reader) fetchPage(ctx context.Context, log *logger.Entry, region string, window models.DateWindow, offset, pageSize int) ([]models.RawDemandRecord, int, error) {
	src := r.config.Source.EIA

	params := url.Values{}
	params.Set("api_key", r.apiKey)
	params.Set("frequency", src.Frequency)
	params.Set("data[0]", "value")
	params.Set("facets[respondent][]", region)
	params.Set("facets[type][]", src.DataType)
	params.Set("start", window.Start.Format("2006-01-02"))
	params.Set("end", window.End.Format("2006-01-02"))
	params.Set("sort[0][column]", "period")
	params.Set("sort[0][direction]", "asc")
	params.Set("offset", strconv.Itoa(offset))
	params.Set("length", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.LogPerformanceEntry(log, "eia_reader", "api_request", time.Since(start), logger.Fields{
		"region": region,
		"offset": offset,
	})

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var page models.DemandPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	if page.Response.Data == nil {
		return nil, 0, fmt.Errorf("response missing data container")
	}

	logger.IncrementPageRead(len(page.Response.Data), int(resp.ContentLength))

	return page.Response.Data, int(page.Response.Total), nil
}
