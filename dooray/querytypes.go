package dooray

// GetProjectsQuery defines the query parameters for:
// GET /project/v1/projects
type GetProjectsQuery struct {
	// Filter the results to projects based on...
	Member string `url:"member,omitempty"` // membership, e.g. "me"
	State  string `url:"state,omitempty"`  // their state: active, archived

	// Dooray paginates with a 0-based page number; totalCount in the response
	// tells you when to stop.
	Page int `url:"page"`
	Size int `url:"size,omitempty"` // page size; default 20, max 100
}

// GetPagesQuery defines the query parameters for:
// GET /wiki/v1/wikis/{wikiId}/pages
//
// An empty ParentPageID lists the wiki's top-level pages.
type GetPagesQuery struct {
	ParentPageID string `url:"parentPageId,omitempty"`
}
