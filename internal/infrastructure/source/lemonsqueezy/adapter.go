package lemonsqueezy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/storeport/migrator/internal/domain/migration"
)

// maxResponseSize is the maximum allowed response size from the API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// kindEndpoints maps entity kinds to their API collection endpoints.
var kindEndpoints = map[migration.EntityKind]string{
	migration.EntityKindProduct:      "products",
	migration.EntityKindDiscount:     "discounts",
	migration.EntityKindCustomer:     "customers",
	migration.EntityKindSubscription: "subscriptions",
}

// Adapter implements the source provider contract for Lemon Squeezy.
// The API is JSON:API with page-number pagination; variants arrive as
// included resources on product listings and are folded into each product
// record here so the pipeline sees one self-contained record per product.
type Adapter struct {
	config     *Config
	httpClient *http.Client
}

// NewAdapter creates a Lemon Squeezy source adapter.
func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Name returns the platform identifier used in logs and metadata.
func (a *Adapter) Name() string {
	return "lemonsqueezy"
}

// ListPage fetches one page of records of the given kind. The page token is
// the page number; an empty token requests the first page. The next token
// is empty once the reported last page has been fetched.
func (a *Adapter) ListPage(ctx context.Context, kind migration.EntityKind, pageToken string, pageSize int) (*migration.Page, error) {
	endpoint, ok := kindEndpoints[kind]
	if !ok {
		return nil, fmt.Errorf("lemonsqueezy: unsupported entity kind %q", kind)
	}

	pageNumber := 1
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("lemonsqueezy: invalid page token %q", pageToken)
		}
		pageNumber = n
	}

	query := url.Values{}
	query.Set("page[number]", strconv.Itoa(pageNumber))
	query.Set("page[size]", strconv.Itoa(pageSize))
	if kind == migration.EntityKindProduct {
		query.Set("include", "variants")
	}

	body, err := a.doRequest(ctx, "/v1/"+endpoint+"?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var doc jsonAPIList
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &migration.ProviderError{
			Kind:    migration.ErrorKindOther,
			Message: fmt.Sprintf("unparseable %s response: %v", endpoint, err),
		}
	}

	page := &migration.Page{
		Records: make([]migration.SourceRecord, 0, len(doc.Data)),
	}
	variantsByProduct := groupVariants(doc.Included)
	for _, resource := range doc.Data {
		record := flatten(resource)
		if kind == migration.EntityKindProduct {
			record["variants"] = variantsByProduct[resource.ID]
		}
		page.Records = append(page.Records, record)
	}

	if doc.Meta.Page.CurrentPage < doc.Meta.Page.LastPage {
		page.NextPageToken = strconv.Itoa(doc.Meta.Page.CurrentPage + 1)
	}
	return page, nil
}

// GetParent resolves a store by id, surfacing its currency.
func (a *Adapter) GetParent(ctx context.Context, parentID string) (*migration.ParentRecord, error) {
	body, err := a.doRequest(ctx, "/v1/stores/"+url.PathEscape(parentID))
	if err != nil {
		return nil, err
	}

	var doc jsonAPISingle
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &migration.ProviderError{
			Kind:    migration.ErrorKindOther,
			Message: fmt.Sprintf("unparseable store response: %v", err),
		}
	}

	record := flatten(doc.Data)
	parent := &migration.ParentRecord{ID: doc.Data.ID}
	parent.Name, _ = record.String("name")
	parent.Currency, _ = record.String("currency")
	return parent, nil
}

// doRequest performs an authenticated GET and maps non-2xx responses onto
// the typed provider error taxonomy.
func (a *Adapter) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.APIBaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("lemonsqueezy: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &migration.ProviderError{
			Kind:    migration.ErrorKindOther,
			Message: fmt.Sprintf("request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("lemonsqueezy: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, mapStatusError(resp, body)
	}
	return body, nil
}

// mapStatusError converts an HTTP error response into a ProviderError.
func mapStatusError(resp *http.Response, body []byte) *migration.ProviderError {
	perr := &migration.ProviderError{
		Kind:       migration.ErrorKindOther,
		StatusCode: resp.StatusCode,
		Message:    errorDetail(body),
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		perr.Kind = migration.ErrorKindAuth
	case http.StatusNotFound:
		perr.Kind = migration.ErrorKindNotFound
	case http.StatusTooManyRequests:
		perr.Kind = migration.ErrorKindRateLimited
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
			perr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}
	return perr
}

// errorDetail extracts the first error detail from a JSON:API error body.
func errorDetail(body []byte) string {
	var doc jsonAPIError
	if err := json.Unmarshal(body, &doc); err == nil && len(doc.Errors) > 0 {
		if doc.Errors[0].Detail != "" {
			return doc.Errors[0].Detail
		}
		return doc.Errors[0].Title
	}
	return "request rejected"
}

// flatten merges a resource's id into its attribute map.
func flatten(resource jsonAPIResource) migration.SourceRecord {
	record := make(migration.SourceRecord, len(resource.Attributes)+1)
	for key, value := range resource.Attributes {
		record[key] = value
	}
	record["id"] = resource.ID

	// Parent references arrive as numeric attributes; the pipeline keys
	// caches by string id.
	if storeID, ok := record.Int64("store_id"); ok {
		record["store_id"] = strconv.FormatInt(storeID, 10)
	}
	if productID, ok := record.Int64("product_id"); ok {
		record["product_id"] = strconv.FormatInt(productID, 10)
	}
	if variantID, ok := record.Int64("variant_id"); ok {
		record["variant_id"] = strconv.FormatInt(variantID, 10)
	}
	return record
}

// Ensure Adapter implements the source provider contract
var _ migration.SourceProvider = (*Adapter)(nil)

// groupVariants indexes included variant resources by their product id.
func groupVariants(included []jsonAPIResource) map[string][]migration.SourceRecord {
	variants := make(map[string][]migration.SourceRecord)
	for _, resource := range included {
		if resource.Type != "variants" {
			continue
		}
		record := flatten(resource)
		productID, ok := record.String("product_id")
		if !ok {
			continue
		}
		variants[productID] = append(variants[productID], record)
	}
	return variants
}
