package dooray

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) (*API, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api, err := NewAPI(server.URL, "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	return api, server
}

func writeListResponse[T any](t *testing.T, w http.ResponseWriter, result []T, totalCount int) {
	t.Helper()
	err := json.NewEncoder(w).Encode(listResponse[T]{
		Header:     responseHeader{ResultCode: 0, IsSuccessful: true},
		Result:     result,
		TotalCount: totalCount,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRequestSendsDoorayAuthHeader(t *testing.T) {
	var gotAuth string
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeListResponse[Page](t, w, nil, 0)
	})

	if _, err := api.ListPages(context.Background(), "9001", ""); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "dooray-api s3cret" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "dooray-api s3cret")
	}
}

func TestListPagesTopLevel(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wiki/v1/wikis/9001/pages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Has("parentPageId") {
			t.Errorf("top-level listing must not send parentPageId, got %q", r.URL.RawQuery)
		}
		writeListResponse(t, w, []Page{{ID: "1", Subject: "Home"}}, 1)
	})

	pages, err := api.ListPages(context.Background(), "9001", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Subject != "Home" {
		t.Errorf("pages = %+v", pages)
	}
}

func TestListPagesChildrenOfParent(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("parentPageId"); got != "42" {
			t.Errorf("parentPageId = %q, want 42", got)
		}
		writeListResponse(t, w, []Page{
			{ID: "43", Subject: "Child A", ParentPageID: "42"},
			{ID: "44", Subject: "Child B", ParentPageID: "42"},
		}, 2)
	})

	pages, err := api.ListPages(context.Background(), "9001", "42")
	if err != nil {
		t.Fatal(err)
	}
	// Sibling order as served must be preserved.
	if len(pages) != 2 || pages[0].ID != "43" || pages[1].ID != "44" {
		t.Errorf("pages = %+v", pages)
	}
}

func TestListPagesRequiresWikiID(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made without a wiki ID")
	})

	if _, err := api.ListPages(context.Background(), "", ""); err == nil {
		t.Fatal("expected an error for an empty wiki ID")
	}
}

func TestGetPageContent(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wiki/v1/wikis/9001/pages/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		err := json.NewEncoder(w).Encode(singleResponse[PageContent]{
			Header: responseHeader{IsSuccessful: true},
			Result: PageContent{
				ID:      "42",
				Subject: "Guide",
				Body:    Body{MimeType: "text/x-markdown", Content: "hello"},
				Files:   []Attachment{{ID: "7", Name: "a.pdf", Size: 123}},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	})

	content, err := api.GetPageContent(context.Background(), "9001", "42")
	if err != nil {
		t.Fatal(err)
	}
	if content.Subject != "Guide" || content.Body.Content != "hello" {
		t.Errorf("content = %+v", content)
	}
	if len(content.Files) != 1 || content.Files[0].Size != 123 {
		t.Errorf("attachments = %+v", content.Files)
	}
}

func TestListProjectsFetchesAllPages(t *testing.T) {
	const total = 250

	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/project/v1/projects" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("state"); got != "active" {
			t.Errorf("state = %q, want active", got)
		}

		var page int
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)

		start := page * projectPageSize
		end := start + projectPageSize
		if end > total {
			end = total
		}
		batch := make([]Project, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, Project{ID: fmt.Sprintf("%d", i), Code: fmt.Sprintf("proj-%03d", i)})
		}
		writeListResponse(t, w, batch, total)
	})

	projects, err := api.ListProjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != total {
		t.Fatalf("got %d projects, want %d", len(projects), total)
	}
	// Pages are fetched concurrently but reassembled in order.
	for i, p := range projects {
		if p.Code != fmt.Sprintf("proj-%03d", i) {
			t.Fatalf("projects[%d].Code = %q, pages out of order", i, p.Code)
		}
	}
}

func TestListProjectsSinglePage(t *testing.T) {
	var requests int
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeListResponse(t, w, []Project{{ID: "1", Code: "only"}}, 1)
	})

	projects, err := api.ListProjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 {
		t.Errorf("got %d projects", len(projects))
	}
	if requests != 1 {
		t.Errorf("a single-page listing should make one request, made %d", requests)
	}
}

func TestRequestStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "authentication failed"},
		{http.StatusForbidden, "access denied"},
		{http.StatusNotFound, "not found"},
		{http.StatusServiceUnavailable, "service is not available"},
		{http.StatusInternalServerError, "internal server error"},
		{http.StatusTeapot, "unknown HTTP response status"},
	}

	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			_, err := api.ListPages(context.Background(), "9001", "")
			if err == nil {
				t.Fatalf("expected an error for status %d", tc.status)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q doesn't mention %q", err, tc.want)
			}
		})
	}
}
