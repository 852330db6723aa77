// Package dashboard provides the dashboard handler listing the user's documents.
package dashboard

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/knowledgeai/knowledge-console/internal/api"
	"github.com/knowledgeai/knowledge-console/internal/guard"
	"github.com/knowledgeai/knowledge-console/internal/knowledge"
	"github.com/knowledgeai/knowledge-console/internal/web/handler"
	"github.com/knowledgeai/knowledge-console/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = guard.HomePath

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"

	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 25

	defaultTimeout = 30 * time.Second

	desc = "desc"
)

// QueryParams holds the query and pagination parameters.
type QueryParams struct {
	Page        int
	PageSize    int
	SearchQuery string
	FilterType  string
	SortField   string
	SortOrder   string
}

// DocumentPage is one page of the filtered document list.
type DocumentPage struct {
	Documents   []knowledge.Document
	CurrentPage int
	PageSize    int
	TotalItems  int
	TotalPages  int
	HasPrevPage bool
	HasNextPage bool
	PrevPage    int
	NextPage    int
	SearchQuery string
	FilterType  string
	SortField   string
	SortOrder   string
	FileTypes   []string
}

// Summary condenses the document insights.
type Summary struct {
	Topics     int
	Categories int
	Domains    int
	Activity   float64
}

// Data represents the complete dashboard data.
type Data struct {
	Documents DocumentPage
	Summary   *Summary

	// Warning is set when a part of the dashboard could not be loaded.
	Warning string
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, s.Get)

	return nil
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	nav := handler.Navigation(c, "Dashboard", navigation.SectionDashboard).
		AddBreadcrumb("Home", "/", false).
		AddBreadcrumb("Dashboard", Path, true)

	params := parseParams(c)

	ctx, cancel := context.WithTimeout(c.UserContext(), defaultTimeout)
	defer cancel()

	docs, err := s.deps.Knowledge.ListDocuments(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			return c.Redirect(guard.LoginPath)
		}

		log.Error().Err(err).Msg("failed to fetch documents")

		return c.Status(fiber.StatusBadGateway).Render(TemplateName, fiber.Map{
			"Navigation": nav,
			"error":      "Failed to load documents",
		}, handler.BaseLayout)
	}

	data := Data{}

	fileTypes := collectFileTypes(docs)

	docs = filterDocuments(docs, params.SearchQuery, params.FilterType)
	sortDocuments(docs, params.SortField, params.SortOrder)

	paginated, totalPages, page := paginateDocuments(docs, params.Page, params.PageSize)
	params.Page = page

	data.Documents = buildPage(paginated, totalPages, &params)
	data.Documents.TotalItems = len(docs)
	data.Documents.FileTypes = fileTypes

	// the insights are optional, the documents render without them
	insights, err := s.deps.Knowledge.DocumentInsights(ctx)

	switch {
	case err == nil:
		data.Summary = summarize(insights)
	case api.IsUnauthorized(err):
		return c.Redirect(guard.LoginPath)
	default:
		log.Warn().Err(err).Msg("failed to fetch document insights")

		data.Warning = "Insights are currently unavailable"
	}

	log.Debug().
		Int("documents", len(docs)).
		Int("page", params.Page).
		Int("page_size", params.PageSize).
		Str("search", params.SearchQuery).
		Str("filter_type", params.FilterType).
		Str("sort_field", params.SortField).
		Str("sort_order", params.SortOrder).
		Msg("dashboard documents retrieved")

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Data":       data,
	}, handler.BaseLayout)
}

func parseParams(c *fiber.Ctx) QueryParams {
	params := QueryParams{
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("pageSize", DefaultPageSize),
		SearchQuery: c.Query("search", ""),
		FilterType:  c.Query("type", ""),
		SortField:   c.Query("sort", "created"),
		SortOrder:   c.Query("order", desc),
	}

	if params.Page < 1 {
		params.Page = 1
	}

	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = DefaultPageSize
	}

	return params
}

func collectFileTypes(docs []knowledge.Document) []string {
	seen := make(map[string]struct{})
	types := make([]string, 0)

	for _, d := range docs {
		if _, ok := seen[d.FileType]; ok || d.FileType == "" {
			continue
		}

		seen[d.FileType] = struct{}{}
		types = append(types, d.FileType)
	}

	sort.Strings(types)

	return types
}

// filterDocuments keeps documents whose title or keywords contain searchQuery
// and whose file type equals filterType.
func filterDocuments(docs []knowledge.Document, searchQuery, filterType string) []knowledge.Document {
	query := strings.ToLower(searchQuery)
	filtered := make([]knowledge.Document, 0, len(docs))

	for _, d := range docs {
		if filterType != "" && d.FileType != filterType {
			continue
		}

		if query != "" && !matches(d, query) {
			continue
		}

		filtered = append(filtered, d)
	}

	return filtered
}

func matches(d knowledge.Document, query string) bool {
	if strings.Contains(strings.ToLower(d.Title), query) {
		return true
	}

	for _, k := range d.Metadata.Keywords {
		if strings.Contains(strings.ToLower(k), query) {
			return true
		}
	}

	return false
}

// sortDocuments sorts docs by the specified field and order.
func sortDocuments(docs []knowledge.Document, sortField, sortOrder string) {
	var less func(a, b knowledge.Document) bool

	switch sortField {
	case "title":
		less = func(a, b knowledge.Document) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case "type":
		less = func(a, b knowledge.Document) bool { return a.FileType < b.FileType }
	case "created":
		// ISO 8601 timestamps order lexically
		less = func(a, b knowledge.Document) bool { return a.CreatedAt < b.CreatedAt }
	default:
		return
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if sortOrder == desc {
			return less(docs[j], docs[i])
		}

		return less(docs[i], docs[j])
	})
}

// paginateDocuments calculates pagination and returns the requested page.
func paginateDocuments(docs []knowledge.Document, page, pageSize int) (paginated []knowledge.Document, totalPages, actualPage int) {
	totalItems := len(docs)

	totalPages = (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	startIdx := (page - 1) * pageSize
	endIdx := min(startIdx+pageSize, totalItems)

	if startIdx < totalItems {
		paginated = docs[startIdx:endIdx]
	} else {
		paginated = []knowledge.Document{}
	}

	return paginated, totalPages, page
}

func buildPage(docs []knowledge.Document, totalPages int, params *QueryParams) DocumentPage {
	return DocumentPage{
		Documents:   docs,
		CurrentPage: params.Page,
		PageSize:    params.PageSize,
		TotalItems:  len(docs),
		TotalPages:  totalPages,
		HasPrevPage: params.Page > 1,
		HasNextPage: params.Page < totalPages,
		PrevPage:    params.Page - 1,
		NextPage:    params.Page + 1,
		SearchQuery: params.SearchQuery,
		FilterType:  params.FilterType,
		SortField:   params.SortField,
		SortOrder:   params.SortOrder,
	}
}

func summarize(in *knowledge.Insights) *Summary {
	return &Summary{
		Topics:     len(in.TopicDistribution.Labels),
		Categories: len(in.CategoryDistribution.Labels),
		Domains:    len(in.DomainCoverage),
		Activity:   in.ActivityTrends.Total(),
	}
}
