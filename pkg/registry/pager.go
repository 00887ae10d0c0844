// pkg/registry/pager.go
package registry

import (
	"context"
	"iter"
)

// Pager walks the registry cursor. The sequence is lazy and finite but has no
// upper bound: it ends when a response carries no continuation token or when
// a request fails. No page cap is enforced, so a registry that keeps
// returning tokens keeps the walk going.
type Pager struct {
	client *Client
	query  Query
}

// NewPager creates a pager over the query
func NewPager(client *Client, query Query) *Pager {
	return &Pager{client: client, query: query}
}

// Pages yields each page in response order. A failed request is yielded as
// (nil, err) and ends the sequence.
func (p *Pager) Pages(ctx context.Context) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		token := ""
		for {
			page, err := p.client.FetchPage(ctx, p.query, token)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if page.NextPageToken == "" {
				return
			}
			token = page.NextPageToken
		}
	}
}
