package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/internal/http"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// SearchStyle selects how a collection's search endpoint takes its parameters.
type SearchStyle int

const (
	// SearchByBody posts the query as JSON to <path>/search.
	SearchByBody SearchStyle = iota
	// SearchByQuery sends the query as URL parameters to GET <path>.
	SearchByQuery
)

// Endpoint describes how one entity collection is exposed by the backend.
type Endpoint struct {
	// Name identifies the collection in events and log fields.
	Name string
	// Path is the collection root, e.g. "/books".
	Path string
	// Search selects the search request shape.
	Search SearchStyle
	// KeywordParam is the name the backend expects for the keyword.
	KeywordParam string
	// DefaultSortBy and DefaultSortDir apply when the query sets no sort.
	DefaultSortBy  string
	DefaultSortDir string
}

// Collections of the library backend.
var (
	BooksEndpoint = Endpoint{
		Name: "books", Path: "/books", Search: SearchByBody, KeywordParam: "keyword",
	}
	AuthorsEndpoint = Endpoint{
		Name: "authors", Path: "/authors", Search: SearchByBody, KeywordParam: "keyword",
	}
	StudentsEndpoint = Endpoint{
		Name: "students", Path: "/students", Search: SearchByBody, KeywordParam: "keyword",
	}
	PublishersEndpoint = Endpoint{
		Name: "publishers", Path: "/publishers", Search: SearchByBody, KeywordParam: "search",
		DefaultSortBy: "id", DefaultSortDir: libadmin.SortDesc,
	}
	CategoriesEndpoint = Endpoint{
		Name: "categories", Path: "/categories", Search: SearchByQuery, KeywordParam: "keyword",
	}
	LoansEndpoint = Endpoint{
		Name: "loans", Path: "/book-loans", Search: SearchByQuery, KeywordParam: "keyword",
	}
)

// Collection implements libadmin.CollectionAPI over one Endpoint.
type Collection[T any] struct {
	httpClient *http.Client
	endpoint   Endpoint
}

var _ libadmin.CollectionAPI[libadmin.Book] = (*Collection[libadmin.Book])(nil)

// NewCollection creates a collection client.
func NewCollection[T any](httpClient *http.Client, endpoint Endpoint) *Collection[T] {
	return &Collection[T]{
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

// Endpoint returns the collection description.
func (c *Collection[T]) Endpoint() Endpoint {
	return c.endpoint
}

// Search implements libadmin.CollectionAPI.Search.
func (c *Collection[T]) Search(ctx context.Context, query libadmin.Query) (*libadmin.Page[T], error) {
	err := query.Validate()
	if err != nil {
		return nil, err
	}

	query = c.withDefaultSort(query)

	var resp *http.Response

	switch c.endpoint.Search {
	case SearchByQuery:
		resp, err = c.httpClient.Get(ctx, c.endpoint.Path, c.searchValues(query))
	default:
		resp, err = c.httpClient.Post(ctx, c.endpoint.Path+"/search", c.searchBody(query))
	}

	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", c.endpoint.Name, err)
	}

	page, err := decodePage[T](resp.Body, query)
	if err != nil {
		return nil, fmt.Errorf("parsing %s page: %w", c.endpoint.Name, err)
	}

	return page, nil
}

// Get implements libadmin.CollectionAPI.Get.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, constants.ErrIDRequired
	}

	resp, err := c.httpClient.Get(ctx, c.itemPath(id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", c.endpoint.Name, id, err)
	}

	var item T

	err = json.Unmarshal(resp.Body, &item)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.endpoint.Name, err)
	}

	return &item, nil
}

// Create implements libadmin.CollectionAPI.Create.
func (c *Collection[T]) Create(ctx context.Context, item *T) (*T, error) {
	if item == nil {
		return nil, constants.ErrPayloadRequired
	}

	resp, err := c.httpClient.Post(ctx, c.endpoint.Path, item)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.endpoint.Name, err)
	}

	return c.decodeItem(resp, item)
}

// Update implements libadmin.CollectionAPI.Update.
func (c *Collection[T]) Update(ctx context.Context, id string, item *T) (*T, error) {
	if id == "" {
		return nil, constants.ErrIDRequired
	}

	if item == nil {
		return nil, constants.ErrPayloadRequired
	}

	resp, err := c.httpClient.Put(ctx, c.itemPath(id), item)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", c.endpoint.Name, id, err)
	}

	return c.decodeItem(resp, item)
}

// Remove implements libadmin.CollectionAPI.Remove.
func (c *Collection[T]) Remove(ctx context.Context, id string) error {
	if id == "" {
		return constants.ErrIDRequired
	}

	_, err := c.httpClient.Delete(ctx, c.itemPath(id))
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", c.endpoint.Name, id, err)
	}

	return nil
}

func (c *Collection[T]) itemPath(id string) string {
	return c.endpoint.Path + "/" + url.PathEscape(id)
}

// decodeItem returns the entity echoed by the backend, or the submitted one
// when the response has no body.
func (c *Collection[T]) decodeItem(resp *http.Response, submitted *T) (*T, error) {
	if len(resp.Body) == 0 {
		echo := *submitted

		return &echo, nil
	}

	var item T

	err := json.Unmarshal(resp.Body, &item)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.endpoint.Name, err)
	}

	return &item, nil
}

func (c *Collection[T]) withDefaultSort(query libadmin.Query) libadmin.Query {
	if query.SortBy == "" && c.endpoint.DefaultSortBy != "" {
		query = query.Clone()
		query.SortBy = c.endpoint.DefaultSortBy
		query.SortDir = c.endpoint.DefaultSortDir
	}

	return query
}

func (c *Collection[T]) searchBody(query libadmin.Query) map[string]interface{} {
	body := map[string]interface{}{
		"page": query.Page,
		"size": query.Size,
	}

	for key, value := range query.Filters {
		body[key] = value
	}

	if query.Keyword != "" {
		body[c.endpoint.KeywordParam] = query.Keyword
	}

	if query.SortBy != "" {
		body["sortBy"] = query.SortBy
	}

	if query.SortDir != "" {
		body["sortDir"] = query.SortDir
	}

	return body
}

func (c *Collection[T]) searchValues(query libadmin.Query) url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(query.Page))
	values.Set("size", strconv.Itoa(query.Size))

	for key, value := range query.Filters {
		values.Set(key, value)
	}

	if query.Keyword != "" {
		values.Set(c.endpoint.KeywordParam, query.Keyword)
	}

	if query.SortBy != "" {
		values.Set("sortBy", query.SortBy)
	}

	if query.SortDir != "" {
		values.Set("sortDir", query.SortDir)
	}

	return values
}
