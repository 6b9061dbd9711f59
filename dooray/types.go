package dooray

// Project as returned by /project/v1/projects.  Only the fields we need for
// picking wikis to back up; the endpoint returns plenty more.
type Project struct {
	ID    string `json:"id,omitempty"`
	Code  string `json:"code,omitempty"`
	State string `json:"state,omitempty"` // active, archived
	Wiki  *Wiki  `json:"wiki,omitempty"`
}

// HasWiki reports whether the project carries a wiki we could export.
func (p Project) HasWiki() bool {
	return p.Wiki != nil && p.Wiki.ID != ""
}

type Wiki struct {
	ID string `json:"id,omitempty"`
}

// Page is one node of the wiki page tree.  The list endpoint returns these
// without bodies; fetch the full content per page with GetPageContent.
type Page struct {
	ID           string `json:"id,omitempty"`
	Subject      string `json:"subject,omitempty"`
	ParentPageID string `json:"parentPageId,omitempty"`
}

// PageContent is the full content of a single page:
// GET /wiki/v1/wikis/{wikiId}/pages/{pageId}
type PageContent struct {
	ID        string       `json:"id,omitempty"`
	Subject   string       `json:"subject,omitempty"`
	Body      Body         `json:"body"`
	Files     []Attachment `json:"files,omitempty"`
	CreatedAt string       `json:"createdAt,omitempty"`
}

// Body holds the page text and its MIME type.  Dooray serves wiki bodies as
// text/x-markdown or text/html depending on the editor that wrote them.
type Body struct {
	MimeType string `json:"mimeType,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Attachment describes a file listed alongside a page body (as opposed to an
// image embedded inline in the body text).
type Attachment struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Dooray wraps every response in a result envelope.
type listResponse[T any] struct {
	Header     responseHeader `json:"header"`
	Result     []T            `json:"result"`
	TotalCount int            `json:"totalCount,omitempty"`
}

type singleResponse[T any] struct {
	Header responseHeader `json:"header"`
	Result T              `json:"result"`
}

type responseHeader struct {
	ResultCode    int    `json:"resultCode"`
	ResultMessage string `json:"resultMessage,omitempty"`
	IsSuccessful  bool   `json:"isSuccessful"`
}
