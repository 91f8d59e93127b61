package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

// defaultRetryDelay is used when a rate-limited response carries no
// provider-declared delay.
const defaultRetryDelay = 5 * time.Second

// Extractor drives pagination for one entity kind to completion before any
// normalization starts. Pages are fetched strictly in order; page tokens
// depend on the prior response.
type Extractor struct {
	source   migration.SourceProvider
	pageSize int
	logger   *zap.Logger
}

// NewExtractor creates an extractor over the given source provider.
func NewExtractor(source migration.SourceProvider, pageSize int, logger *zap.Logger) *Extractor {
	return &Extractor{
		source:   source,
		pageSize: pageSize,
		logger:   logger,
	}
}

// ExtractAll fetches every record of the given kind. Any page failure is
// fatal: a partial extraction would make the migration plan silently
// incomplete. A rate-limited page is retried once after the
// provider-declared delay.
func (e *Extractor) ExtractAll(ctx context.Context, kind migration.EntityKind) ([]migration.SourceRecord, error) {
	var all []migration.SourceRecord
	token := ""
	pages := 0

	for {
		page, err := e.listWithRetry(ctx, kind, token)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", kind, err)
		}
		pages++
		all = append(all, page.Records...)

		// A partial page or an empty next token means the source is done.
		if page.NextPageToken == "" || len(page.Records) < e.pageSize {
			break
		}
		token = page.NextPageToken
	}

	e.logger.Info("Extraction complete",
		zap.String("kind", string(kind)),
		zap.Int("records", len(all)),
		zap.Int("pages", pages))
	return all, nil
}

// listWithRetry fetches one page, waiting out a single rate-limit response.
// A second rate-limit on the same page is terminal.
func (e *Extractor) listWithRetry(ctx context.Context, kind migration.EntityKind, token string) (*migration.Page, error) {
	page, err := e.source.ListPage(ctx, kind, token, e.pageSize)
	if err == nil {
		return page, nil
	}
	if !migration.IsRateLimited(err) {
		return nil, err
	}

	perr, _ := migration.AsProviderError(err)
	delay := perr.RetryAfter
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	e.logger.Warn("Source rate limited, waiting before retry",
		zap.String("kind", string(kind)),
		zap.Duration("retry_after", delay))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}

	page, err = e.source.ListPage(ctx, kind, token, e.pageSize)
	if err != nil {
		return nil, fmt.Errorf("retry after rate limit failed: %w", err)
	}
	return page, nil
}
