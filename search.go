package sonic

import "context"

// SearchChannel runs queries against indexed buckets.
type SearchChannel struct {
	*channel
}

// StartSearch connects to config.Addr and opens a search session.
func StartSearch(ctx context.Context, config Config) (*SearchChannel, error) {
	ch, err := start(ctx, ModeSearch, config)
	if err != nil {
		return nil, err
	}
	return &SearchChannel{channel: ch}, nil
}

// QueryRequest holds the arguments of QUERY.
type QueryRequest struct {
	Collection string
	Bucket     string
	Terms      string

	// Limit caps the number of results. Zero means the server default.
	Limit int

	// Offset skips results (paging). Zero means none.
	Offset int

	// Lang is an ISO 639-3 locale, or "none" to disable stopwords.
	// Empty lets the server detect it.
	Lang string
}

// SuggestRequest holds the arguments of SUGGEST.
type SuggestRequest struct {
	Collection string
	Bucket     string
	Word       string

	// Limit caps the number of suggestions. Zero means the server default.
	Limit int
}

// ListRequest holds the arguments of LIST.
type ListRequest struct {
	Collection string
	Bucket     string
	Limit      int
	Offset     int
}

// Query returns the objects matching terms, best match first.
func (c *SearchChannel) Query(ctx context.Context, collection, bucket, terms string) ([]string, error) {
	return c.QueryWith(ctx, QueryRequest{Collection: collection, Bucket: bucket, Terms: terms})
}

// QueryWith is Query with paging and locale.
func (c *SearchChannel) QueryWith(ctx context.Context, req QueryRequest) ([]string, error) {
	resp, err := c.run(ctx, &command{
		kind:       cmdQuery,
		collection: req.Collection,
		bucket:     req.Bucket,
		text:       req.Terms,
		limit:      req.Limit,
		offset:     req.Offset,
		lang:       req.Lang,
	})
	return resp.items, err
}

// Suggest returns completions for a word prefix.
func (c *SearchChannel) Suggest(ctx context.Context, collection, bucket, word string) ([]string, error) {
	return c.SuggestWith(ctx, SuggestRequest{Collection: collection, Bucket: bucket, Word: word})
}

// SuggestWith is Suggest with a result limit.
func (c *SearchChannel) SuggestWith(ctx context.Context, req SuggestRequest) ([]string, error) {
	resp, err := c.run(ctx, &command{
		kind:       cmdSuggest,
		collection: req.Collection,
		bucket:     req.Bucket,
		text:       req.Word,
		limit:      req.Limit,
	})
	return resp.items, err
}

// List enumerates the words indexed in a bucket.
func (c *SearchChannel) List(ctx context.Context, req ListRequest) ([]string, error) {
	resp, err := c.run(ctx, &command{
		kind:       cmdList,
		collection: req.Collection,
		bucket:     req.Bucket,
		limit:      req.Limit,
		offset:     req.Offset,
	})
	return resp.items, err
}
