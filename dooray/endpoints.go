package dooray

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// getProjectsEndpoint returns the endpoint to list projects:
// GET /project/v1/projects
func (a *API) getProjectsEndpoint(opts GetProjectsQuery) (*url.URL, error) {
	ep, err := a.resolveEndpoint("/project/v1/projects")
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getPagesEndpoint returns the endpoint to list one level of wiki pages:
// GET /wiki/v1/wikis/{wikiId}/pages
func (a *API) getPagesEndpoint(wikiID string, opts GetPagesQuery) (*url.URL, error) {
	if wikiID == "" {
		return nil, fmt.Errorf("dooray: please provide a wiki ID to list pages")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/wiki/v1/wikis/%s/pages", wikiID))
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getPageContentEndpoint returns the endpoint to fetch one page's content:
// GET /wiki/v1/wikis/{wikiId}/pages/{pageId}
func (a *API) getPageContentEndpoint(wikiID string, pageID string) (*url.URL, error) {
	if wikiID == "" {
		return nil, fmt.Errorf("dooray: please provide a wiki ID to get page content")
	}
	if pageID == "" {
		return nil, fmt.Errorf("dooray: please provide a page ID to get page content")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/wiki/v1/wikis/%s/pages/%s", wikiID, pageID))
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't resolve endpoint: %w", err)
	}

	return ep, nil
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	baseUri := a.BaseURI

	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("dooray: failed to parse endpoint ref: %w", err)
	}

	return baseUri.ResolveReference(ref), nil
}
