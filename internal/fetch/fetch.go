package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"

	"github.com/odysseus0/sharedfeed/internal/store"
)

var ErrFetchFailed = errors.New("fetch failed")

type Fetcher struct {
	store     *Store
	sanitizer *Sanitizer
	cfg       Config
	client    *http.Client
	logger    *log.Logger
}

type ProgressFn func(done, total int, result FetchResult)

func NewFetcher(store *Store, sanitizer *Sanitizer, cfg Config, logger *log.Logger) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}
	if sanitizer == nil {
		sanitizer = NewSanitizer(nil, nil)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Fetcher{
		store:     store,
		sanitizer: sanitizer,
		cfg:       cfg,
		logger:    logger,
		client: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: transport,
		},
	}
}

// FetchFeed fetches one feed, ingests its entries and applies retention.
// A failed fetch is recorded on the feed row and returned as ErrFetchFailed.
func (f *Fetcher) FetchFeed(ctx context.Context, feedID int64) error {
	feed, err := f.store.GetFeedByID(ctx, feedID)
	if err != nil {
		return err
	}
	result := f.fetchSingle(ctx, feed)
	f.prune(ctx, []FetchResult{result})
	if result.Error != "" {
		return fmt.Errorf("%w: %s: %s", ErrFetchFailed, feed.URL, result.Error)
	}
	return nil
}

func (f *Fetcher) Fetch(ctx context.Context, feedID *int64) (FetchReport, error) {
	return f.FetchWithProgress(ctx, feedID, nil)
}

func (f *Fetcher) FetchWithProgress(ctx context.Context, feedID *int64, onResult ProgressFn) (FetchReport, error) {
	feeds, err := f.store.ListFeedsForFetch(ctx, feedID)
	if err != nil {
		return FetchReport{}, err
	}
	return f.fetchFeeds(ctx, feeds, onResult), nil
}

// FetchFeeds fetches the given feeds with the worker pool.
func (f *Fetcher) FetchFeeds(ctx context.Context, feedIDs []int64, onResult ProgressFn) (FetchReport, error) {
	feeds := make([]Feed, 0, len(feedIDs))
	for _, id := range feedIDs {
		feed, err := f.store.GetFeedByID(ctx, id)
		if err != nil {
			return FetchReport{}, err
		}
		feeds = append(feeds, feed)
	}
	return f.fetchFeeds(ctx, feeds, onResult), nil
}

func (f *Fetcher) fetchFeeds(ctx context.Context, feeds []Feed, onResult ProgressFn) FetchReport {
	report := FetchReport{StartedAt: time.Now()}
	if len(feeds) == 0 {
		report.EndedAt = time.Now()
		return report
	}

	results := f.fetchAll(ctx, feeds, onResult)
	sort.Slice(results, func(i, j int) bool { return results[i].FeedID < results[j].FeedID })
	report.Results = results
	report.Warnings = f.prune(ctx, results)
	report.EndedAt = time.Now()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	f.logger.Info("fetch finished", "feeds", len(results), "failed", failed, "took", report.EndedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return report
}

func (f *Fetcher) prune(ctx context.Context, results []FetchResult) []string {
	cutoff := f.cfg.RetentionCutoff(time.Now())
	if cutoff.IsZero() && f.cfg.MaxEntriesPerFeed <= 0 {
		return nil
	}
	var warnings []string
	var total int64
	for _, r := range results {
		if r.Error != "" || r.NotModified {
			continue
		}
		n, err := f.store.PruneEntries(ctx, r.FeedID, cutoff, f.cfg.MaxEntriesPerFeed)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("prune feed %d failed: %v", r.FeedID, err))
			continue
		}
		total += n
	}
	if total > 0 {
		warnings = append(warnings, fmt.Sprintf("pruned %d old entries", total))
		f.logger.Info("pruned entries", "count", total)
	}
	return warnings
}

func (f *Fetcher) fetchAll(ctx context.Context, feeds []Feed, onResult ProgressFn) []FetchResult {
	results := make([]FetchResult, 0, len(feeds))
	total := len(feeds)
	if total == 1 {
		result := f.fetchSingle(ctx, feeds[0])
		if onResult != nil {
			onResult(1, 1, result)
		}
		return append(results, result)
	}

	concurrency := f.cfg.FetchConcurrency
	if concurrency < 1 {
		concurrency = 10
	}

	jobs := make(chan Feed)
	out := make(chan FetchResult, total)
	wg := sync.WaitGroup{}
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for feed := range jobs {
				out <- f.fetchSingle(ctx, feed)
			}
		}()
	}

	go func() {
		for _, feed := range feeds {
			jobs <- feed
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	var done int64
	for result := range out {
		results = append(results, result)
		if onResult != nil {
			onResult(int(atomic.AddInt64(&done, 1)), total, result)
		}
	}
	return results
}

func (f *Fetcher) fetchSingle(ctx context.Context, feed Feed) FetchResult {
	result := FetchResult{
		FeedID:    feed.ID,
		FeedTitle: fallback(feed.Title, feed.URL),
		FeedURL:   feed.URL,
	}

	req, err := f.newFeedRequest(ctx, feed)
	if err != nil {
		return f.failFeed(ctx, feed.ID, result, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return f.failFeed(ctx, feed.ID, result, err)
	}
	defer resp.Body.Close()

	etag, lastModified := mergeCacheHeaders(resp, feed)
	if resp.StatusCode == http.StatusNotModified {
		result.NotModified = true
		if err := f.store.UpdateFeedFetchSuccess(ctx, feed.ID, "", "", "", etag, lastModified, time.Now()); err != nil {
			return f.failFeed(ctx, feed.ID, result, err)
		}
		f.logger.Debug("feed not modified", "feed", feed.ID, "url", feed.URL)
		return result
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return f.failFeed(ctx, feed.ID, result, fmt.Errorf("http %d", resp.StatusCode))
	}

	parsed, err := parseFeedResponse(resp.Body)
	if err != nil {
		return f.failFeed(ctx, feed.ID, result, err)
	}

	fetchedAt := time.Now()
	if err := f.storeFeedItems(ctx, feed.ID, parsed.Items, fetchedAt, &result); err != nil {
		return f.failFeed(ctx, feed.ID, result, err)
	}

	if err := f.store.UpdateFeedFetchSuccess(ctx, feed.ID, f.sanitizer.Restricted(parsed.Title), strings.TrimSpace(parsed.Link), f.sanitizer.Restricted(parsed.Description), etag, lastModified, fetchedAt); err != nil {
		return f.failFeed(ctx, feed.ID, result, err)
	}
	if parsed.Title != "" {
		result.FeedTitle = parsed.Title
	}
	f.logger.Debug("feed fetched", "feed", feed.ID, "url", feed.URL, "new", result.NewEntries, "updated", result.Updated, "skipped", result.Skipped)
	return result
}

func (f *Fetcher) newFeedRequest(ctx context.Context, feed Feed) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", acceptFeeds)
	if feed.ETag != "" {
		req.Header.Set("If-None-Match", feed.ETag)
	}
	if feed.LastModified != "" {
		req.Header.Set("If-Modified-Since", feed.LastModified)
	}
	return req, nil
}

func mergeCacheHeaders(resp *http.Response, feed Feed) (etag, lastModified string) {
	etag = strings.TrimSpace(resp.Header.Get("ETag"))
	if etag == "" {
		etag = feed.ETag
	}
	lastModified = strings.TrimSpace(resp.Header.Get("Last-Modified"))
	if lastModified == "" {
		lastModified = feed.LastModified
	}
	return etag, lastModified
}

func parseFeedResponse(body io.Reader) (*gofeed.Feed, error) {
	data, err := io.ReadAll(io.LimitReader(body, 16<<20))
	if err != nil {
		return nil, err
	}
	return gofeed.NewParser().Parse(bytes.NewReader(data))
}

// storeFeedItems upserts every item. Items whose guid was pruned before are
// counted as skipped.
func (f *Fetcher) storeFeedItems(ctx context.Context, feedID int64, items []*gofeed.Item, fetchedAt time.Time, result *FetchResult) error {
	for _, item := range items {
		if item == nil {
			continue
		}
		in := normalizeItem(f.sanitizer, feedID, item, fetchedAt)
		_, inserted, err := f.store.UpsertEntry(ctx, in)
		switch {
		case errors.Is(err, store.ErrEntryDeleted):
			result.Skipped++
		case err != nil:
			return err
		case inserted:
			result.NewEntries++
		default:
			result.Updated++
		}
	}
	return nil
}

func (f *Fetcher) failFeed(ctx context.Context, feedID int64, result FetchResult, err error) FetchResult {
	result.Error = err.Error()
	if persistErr := f.store.SetFeedError(ctx, feedID, result.Error); persistErr != nil {
		result.Error = fmt.Sprintf("%s; additionally failed to persist feed error: %v", result.Error, persistErr)
	}
	f.logger.Warn("feed fetch failed", "feed", feedID, "url", result.FeedURL, "err", result.Error)
	return result
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}
