// Package knowledge wraps the document, chat and analytics endpoints of the
// Knowledge API. All calls go through the authorized request layer.
package knowledge

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
)

const (
	pathDocuments     = "/api/v1/documents"
	pathSearch        = "/api/v1/documents/search"
	pathConversations = "/api/v1/chat/conversations"
	pathChat          = "/api/v1/chat/chat"
	pathInsights      = "/api/v1/analytics/document-insights"
)

// ErrEmptyID is returned for calls addressing a document without id.
var ErrEmptyID = errors.New("document id is empty")

// Caller is the request layer.
type Caller interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string) error
}

// Service lists and manages the user's knowledge.
type Service struct {
	api Caller
}

// NewService returns a Service calling through c.
func NewService(c Caller) *Service {
	return &Service{api: c}
}

// ListDocuments returns all documents of the user.
func (s *Service) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document

	if err := s.api.Get(ctx, pathDocuments, nil, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}

	return docs, nil
}

// GetDocument returns one document.
func (s *Service) GetDocument(ctx context.Context, id string) (*Document, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var doc Document

	if err := s.api.Get(ctx, pathDocuments+"/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to get document %s", id)
	}

	return &doc, nil
}

// SearchDocuments runs a search. An empty query returns no results without a request.
func (s *Service) SearchDocuments(ctx context.Context, query string, searchType SearchType) ([]SearchResult, error) {
	if query == "" {
		return nil, nil
	}

	if searchType == "" {
		searchType = SearchSemantic
	}

	params := url.Values{
		"q":           {query},
		"search_type": {string(searchType)},
	}

	var results []SearchResult

	if err := s.api.Get(ctx, pathSearch, params, &results); err != nil {
		return nil, errors.Wrap(err, "failed to search documents")
	}

	return results, nil
}

// DeleteDocument removes a document.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}

	return errors.Wrapf(s.api.Delete(ctx, pathDocuments+"/"+url.PathEscape(id)), "failed to delete document %s", id)
}

// ListConversations returns the user's chat conversations.
func (s *Service) ListConversations(ctx context.Context) ([]Conversation, error) {
	var conversations []Conversation

	if err := s.api.Get(ctx, pathConversations, nil, &conversations); err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}

	return conversations, nil
}

// DocumentInsights returns the analytics summary over all documents.
func (s *Service) DocumentInsights(ctx context.Context) (*Insights, error) {
	var insights Insights

	if err := s.api.Get(ctx, pathInsights, nil, &insights); err != nil {
		return nil, errors.Wrap(err, "failed to load document insights")
	}

	return &insights, nil
}
