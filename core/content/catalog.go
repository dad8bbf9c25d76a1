package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
)

var (
	NowFunc = time.Now // mockable

	// RetryInterval is the minimum delay between two attempts to replace cached content by a fresh copy.
	RetryInterval = time.Minute

	ErrTopicNotFound = errors.New("topic content not found")
	ErrNoContent     = errors.New("no content available offline")
)

// Source fetches a raw content document by file name.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Catalog serves the read-only lesson content. A fresh copy is fetched from the source when
// possible and written to the cache dir; the cached copy is used whenever the source fails.
type Catalog struct {
	src      Source
	cacheDir string
	logger   core.Logger

	mu     sync.RWMutex
	topics map[string]loaded // {lang: topics}
}

type loaded struct {
	topics    []Topic
	fromCache bool
	at        time.Time
}

// due reports whether a fresh copy should be fetched before serving l.
func (l loaded) due(hasSource bool) bool {
	return hasSource && l.fromCache && NowFunc().Sub(l.at) >= RetryInterval
}

// NewCatalog returns a Catalog. src may be nil, in which case only the cache is used.
func NewCatalog(src Source, cacheDir string, logger core.Logger) *Catalog {
	return &Catalog{
		src:      src,
		cacheDir: cacheDir,
		logger:   logger,
		topics:   make(map[string]loaded),
	}
}

func (c *Catalog) cachePath(lang string) string {
	return filepath.Join(c.cacheDir, FileName(lang))
}

// Load refreshes the topics of lang: source first, cache as fallback.
func (c *Catalog) Load(ctx context.Context, lang string) ([]Topic, error) {
	lang = LangFor(lang)
	raw, err := c.fetch(ctx, lang)
	fromCache := err != nil
	if err != nil {
		c.logger.Warn(fmt.Sprintf("content source unavailable, loading %s from cache: %v", lang, err), err)
		if raw, err = os.ReadFile(c.cachePath(lang)); err != nil {
			if os.IsNotExist(err) {
				return nil, ErrNoContent
			}
			return nil, errors.Wrap(err, "reading content cache")
		}
	}

	var topics []Topic
	if err = json.Unmarshal(raw, &topics); err != nil {
		return nil, errors.Wrap(err, "decoding content")
	}

	c.mu.Lock()
	c.topics[lang] = loaded{topics: topics, fromCache: fromCache, at: NowFunc()}
	c.mu.Unlock()
	return topics, nil
}

// fetch gets the document from the source and refreshes the cache with it.
func (c *Catalog) fetch(ctx context.Context, lang string) ([]byte, error) {
	if c.src == nil {
		return nil, errors.New("no content source configured")
	}
	raw, err := c.src.Fetch(ctx, FileName(lang))
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, errors.New("content source returned invalid json")
	}
	if err = os.MkdirAll(c.cacheDir, 0o755); err != nil {
		c.logger.Warn(fmt.Sprintf("creating content cache dir: %v", err), err)
		return raw, nil
	}
	if err = os.WriteFile(c.cachePath(lang), raw, 0o644); err != nil {
		c.logger.Warn(fmt.Sprintf("writing content cache: %v", err), err)
	}
	return raw, nil
}

// Topics returns the loaded topics of lang, loading them on first use.
// Topics loaded from the disk cache are refetched from the source once RetryInterval has elapsed.
func (c *Catalog) Topics(ctx context.Context, lang string) ([]Topic, error) {
	lang = LangFor(lang)
	c.mu.RLock()
	l, ok := c.topics[lang]
	c.mu.RUnlock()
	if !ok {
		return c.Load(ctx, lang)
	}
	if !l.due(c.src != nil) {
		return l.topics, nil
	}

	topics, err := c.Load(ctx, lang)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("reloading %s content: %v", lang, err), err)
		return l.topics, nil
	}
	return topics, nil
}

func (c *Catalog) Topic(ctx context.Context, lang, id string) (Topic, error) {
	topics, err := c.Topics(ctx, lang)
	if err != nil {
		return Topic{}, err
	}
	for _, t := range topics {
		if t.ID == id {
			return t, nil
		}
	}
	return Topic{}, ErrTopicNotFound
}

func (c *Catalog) BySubject(ctx context.Context, lang, subject string) ([]Topic, error) {
	topics, err := c.Topics(ctx, lang)
	if err != nil {
		return nil, err
	}
	if subject == "" {
		return topics, nil
	}
	filtered := make([]Topic, 0)
	for _, t := range topics {
		if t.InSubject(subject) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (c *Catalog) Search(ctx context.Context, lang, query string) ([]Topic, error) {
	topics, err := c.Topics(ctx, lang)
	if err != nil {
		return nil, err
	}
	return Search(topics, query), nil
}
