package karbon

import (
	"net/url"
	"strconv"
)

// ListOptions are the OData query options accepted by collection endpoints.
// Zero values are omitted from the request.
type ListOptions struct {
	Filter  string
	OrderBy string
	Expand  string
	Top     int
	Skip    int
}

// query encodes the options as OData query parameters.
func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Filter != "" {
		q.Set("$filter", o.Filter)
	}
	if o.OrderBy != "" {
		q.Set("$orderby", o.OrderBy)
	}
	if o.Expand != "" {
		q.Set("$expand", o.Expand)
	}
	if o.Top > 0 {
		q.Set("$top", strconv.Itoa(o.Top))
	}
	if o.Skip > 0 {
		q.Set("$skip", strconv.Itoa(o.Skip))
	}
	return q
}
