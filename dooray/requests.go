package dooray

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"
)

const projectPageSize = 100

// ListProjects returns all active projects on the tenant.  The first page is
// fetched synchronously to learn totalCount; the remaining pages are fetched
// concurrently.  This is a read-only listing, so the strictly sequential rule
// that governs the backup traversal doesn't apply here.
func (api *API) ListProjects(ctx context.Context) ([]Project, error) {
	first, total, err := api.getProjectsPage(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't fetch first project page: %w", err)
	}

	projects := first
	if len(projects) == 0 || len(projects) >= total {
		return projects, nil
	}

	remaining := (total - 1) / projectPageSize // pages after page 0
	pages := make([][]Project, remaining)

	grp, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i := 0; i < remaining; i++ {
		i := i
		grp.Go(func() error {
			batch, _, err := api.getProjectsPage(gctx, i+1)
			if err != nil {
				return fmt.Errorf("dooray: couldn't fetch project page %d: %w", i+1, err)
			}
			mu.Lock()
			pages[i] = batch
			mu.Unlock()
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	for _, batch := range pages {
		projects = append(projects, batch...)
	}

	return projects, nil
}

func (api *API) getProjectsPage(ctx context.Context, page int) ([]Project, int, error) {
	ep, err := api.getProjectsEndpoint(GetProjectsQuery{
		State: "active",
		Page:  page,
		Size:  projectPageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("dooray: couldn't get projects endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, 0, fmt.Errorf("dooray: couldn't perform request: %w", err)
	}

	var projectList listResponse[Project]
	if err := json.Unmarshal(body, &projectList); err != nil {
		return nil, 0, fmt.Errorf("dooray: couldn't parse json response: %w", err)
	}

	return projectList.Result, projectList.TotalCount, nil
}

// ListPages returns one level of the page tree: the direct children of
// parentPageID, or the wiki's top-level pages when parentPageID is empty.
// Order is as the API returns it; sibling numbering downstream relies on that.
func (api *API) ListPages(ctx context.Context, wikiID string, parentPageID string) ([]Page, error) {
	ep, err := api.getPagesEndpoint(wikiID, GetPagesQuery{ParentPageID: parentPageID})
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't get pages endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't perform request: %w", err)
	}

	var pageList listResponse[Page]
	if err := json.Unmarshal(body, &pageList); err != nil {
		return nil, fmt.Errorf("dooray: couldn't parse json response: %w", err)
	}

	return pageList.Result, nil
}

// GetPageContent fetches one page's full content, including its attachment
// descriptors.
func (api *API) GetPageContent(ctx context.Context, wikiID string, pageID string) (*PageContent, error) {
	ep, err := api.getPageContentEndpoint(wikiID, pageID)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't get page content endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't perform request: %w", err)
	}

	var content singleResponse[PageContent]
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("dooray: couldn't parse json response: %w", err)
	}

	return &content.Result, nil
}

// Request implements the basic Request function
func (api *API) request(ctx context.Context, url *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't instantiate http request: %w", err)
	}

	req.Header.Add("Accept", "application/json, */*")
	req.Header.Set("Authorization", "dooray-api "+api.token)

	response, err := api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't perform http request: %w", err)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't read http response body: %w", err)
	}

	if err := response.Body.Close(); err != nil {
		return nil, fmt.Errorf("dooray: couldn't close response body: %w", err)
	}

	switch response.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusPartialContent, http.StatusNoContent, http.StatusResetContent:
		return body, nil
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("dooray: authentication failed")
	case http.StatusForbidden:
		return nil, fmt.Errorf("dooray: access denied: %s", url.String())
	case http.StatusNotFound:
		return nil, fmt.Errorf("dooray: not found: %s", url.String())
	case http.StatusServiceUnavailable:
		return nil, fmt.Errorf("dooray: service is not available: %s", response.Status)
	case http.StatusInternalServerError:
		return nil, fmt.Errorf("dooray: internal server error: %s", response.Status)
	}

	return nil, fmt.Errorf("dooray: unknown HTTP response status: %s: %s", response.Status, url.String())
}
