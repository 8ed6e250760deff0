// Package scholarship is the read-only listing surface. Filtering and
// sorting are plain query parameters delegated to the backend.
package scholarship

import (
	"context"
	"net/url"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/scholarhub/client/api/backend"
	"github.com/scholarhub/client/api/transport"
	"github.com/scholarhub/client/domain"
)

// Query selects and orders the listing.
type Query struct {
	Filters  domain.Filters
	Search   string
	Featured bool
	Ordering string
	Limit    int
}

func (q Query) encode() string {
	v := q.Filters.Values()
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Featured {
		v.Set("is_featured", "true")
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v.Encode()
}

type UseCase struct {
	api    *backend.Client
	logger *zap.Logger
}

func New(api *backend.Client, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		api:    api,
		logger: logger,
	}
}

// List returns the scholarships matching the query. The backend answers
// either a paginated envelope or a bare array; both are handled.
func (uc *UseCase) List(ctx context.Context, q Query) ([]domain.Scholarship, error) {
	path := backend.EndpointScholarships
	if encoded := q.encode(); encoded != "" {
		path += "?" + encoded
	}
	body, err := uc.api.Do(ctx, fasthttp.MethodGet, path, nil, false)
	if err != nil {
		return nil, err
	}
	var items []domain.Scholarship
	if err := transport.DecodeList(body, &items); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "decode scholarships", err)
	}
	return items, nil
}

// Get fetches a single scholarship by id.
func (uc *UseCase) Get(ctx context.Context, id int64) (*domain.Scholarship, error) {
	var s domain.Scholarship
	if err := uc.api.Get(ctx, backend.EndpointScholarships+domain.FormatID(id)+"/", false, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Search performs a keyword search limited to limit results.
func (uc *UseCase) Search(ctx context.Context, keyword string, limit int) ([]domain.Scholarship, error) {
	if limit <= 0 {
		limit = 10
	}
	return uc.List(ctx, Query{Search: keyword, Limit: limit})
}

// Featured lists the scholarships flagged for the homepage.
func (uc *UseCase) Featured(ctx context.Context, limit int) ([]domain.Scholarship, error) {
	if limit <= 0 {
		limit = 8
	}
	return uc.List(ctx, Query{Featured: true, Limit: limit})
}

// FilterOptions fetches the lookup values the filter controls draw from.
func (uc *UseCase) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	var opts domain.FilterOptions
	if err := uc.api.Get(ctx, backend.EndpointFilterOptions, false, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// BuildQuery assembles a Query from raw key/value pairs, ignoring unknown
// keys. Used by callers that collect filters from loosely typed input.
func BuildQuery(params url.Values) Query {
	q := Query{
		Filters: domain.Filters{
			Levels:              params.Get("levels"),
			Country:             params.Get("country"),
			FieldOfStudy:        params.Get("field_of_study"),
			FundType:            params.Get("fund_type"),
			SponsorType:         params.Get("sponsor_type"),
			Category:            params.Get("scholarship_category"),
			DeadlineBefore:      params.Get("deadline_before"),
			LanguageRequirement: params.Get("language_requirement"),
		},
		Search:   params.Get("search"),
		Ordering: params.Get("ordering"),
	}
	if limit, err := strconv.Atoi(params.Get("limit")); err == nil {
		q.Limit = limit
	}
	q.Featured = params.Get("is_featured") == "true"
	return q
}
