package cliniko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// EntityClient is the CRUD surface for one entity kind. All methods make
// exactly one upstream call except List, which walks pagination links and
// returns the assembled sequence.
type EntityClient struct {
	client     *Client
	resource   string
	collection string
}

// entity binds a client to one upstream resource path. The collection key is
// the field under which the API nests list results.
func (c *Client) entity(resource string) *EntityClient {
	return &EntityClient{client: c, resource: resource, collection: resource}
}

// Patients returns the patient CRUD surface.
func (c *Client) Patients() *EntityClient { return c.entity("patients") }

// Appointments returns the appointment CRUD surface.
func (c *Client) Appointments() *EntityClient { return c.entity("appointments") }

// Invoices returns the invoice CRUD surface.
func (c *Client) Invoices() *EntityClient { return c.entity("invoices") }

// Practitioners returns the practitioner CRUD surface.
func (c *Client) Practitioners() *EntityClient { return c.entity("practitioners") }

// List fetches all records matching the free-text query. An empty query
// matches everything. The query grammar is owned by the upstream API and
// passed through verbatim. Pages are followed via the response's links.next
// until exhausted.
func (e *EntityClient) List(ctx context.Context, query string) ([]Record, error) {
	pageURL := e.client.resourceURL(e.resource)
	if query != "" {
		pageURL += "?" + url.Values{"q": {query}}.Encode()
	}

	var records []Record
	for pageURL != "" {
		page, err := e.client.doJSON(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		items, ok := page[e.collection].([]any)
		if !ok {
			return nil, &Error{Kind: KindUnknown, Message: fmt.Sprintf("list response missing %q collection", e.collection)}
		}
		for _, item := range items {
			fields, ok := item.(map[string]any)
			if !ok {
				return nil, &Error{Kind: KindUnknown, Message: fmt.Sprintf("unexpected %s entry type %T", e.resource, item)}
			}
			records = append(records, Record(fields))
		}
		pageURL = nextPageURL(page)
	}
	return records, nil
}

// Get fetches one record by id.
func (e *EntityClient) Get(ctx context.Context, id int64) (Record, error) {
	payload, err := e.client.doJSON(ctx, http.MethodGet, e.client.resourceURL(e.resource, formatID(id)), nil)
	if err != nil {
		return nil, err
	}
	return Record(payload), nil
}

// Create submits a new record and returns the stored representation.
func (e *EntityClient) Create(ctx context.Context, fields Record) (Record, error) {
	payload, err := e.client.doJSON(ctx, http.MethodPost, e.client.resourceURL(e.resource), fields)
	if err != nil {
		return nil, err
	}
	return Record(payload), nil
}

// Update modifies an existing record and returns the stored representation.
func (e *EntityClient) Update(ctx context.Context, id int64, fields Record) (Record, error) {
	payload, err := e.client.doJSON(ctx, http.MethodPut, e.client.resourceURL(e.resource, formatID(id)), fields)
	if err != nil {
		return nil, err
	}
	return Record(payload), nil
}

// Delete archives a record. The upstream returns no body on success, so the
// confirmation record is synthesized here.
func (e *EntityClient) Delete(ctx context.Context, id int64) (Record, error) {
	payload, err := e.client.doJSON(ctx, http.MethodDelete, e.client.resourceURL(e.resource, formatID(id)), nil)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return Record{"id": id, "archived": true}, nil
	}
	return Record(payload), nil
}

// nextPageURL extracts the absolute next-page link, if any.
func nextPageURL(page map[string]any) string {
	links, ok := page["links"].(map[string]any)
	if !ok {
		return ""
	}
	next, _ := links["next"].(string)
	return next
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
