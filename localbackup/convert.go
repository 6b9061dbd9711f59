package localbackup

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	mdplugin "github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"github.com/dooraytools/dooray-dump/dooray"
)

// markdownBody returns the page body as markdown.  Dooray serves markdown
// bodies as-is; HTML bodies (older pages, rich-text editor) are converted
// first so the inline-image rewriter has one format to deal with.
func (d *WikiBackup) markdownBody(content *dooray.PageContent) (string, error) {
	switch content.Body.MimeType {
	case "text/html":
		return d.htmlToMarkdown(content.Body.Content)
	default:
		return content.Body.Content, nil
	}
}

func (d *WikiBackup) htmlToMarkdown(html string) (string, error) {
	// md.NewConverter only accepts a hostname, not a base URI, so absolute-URL
	// resolution happens in this hook.  Adapted from
	// https://github.com/JohannesKaufmann/html-to-markdown/issues/44
	opt := &md.Options{
		GetAbsoluteURL: func(selec *goquery.Selection, rawURL string, domain string) string {
			// Wiki-hosted media must stay relative, or the image rewriter
			// can't claim it for local download.
			if strings.HasPrefix(rawURL, "/wikis/") {
				return rawURL
			}

			if domain == "" {
				return rawURL
			}

			u, err := url.Parse(rawURL)
			if err != nil {
				// we can't do anything with this url because it is invalid
				return rawURL
			}

			if u.Scheme == "data" {
				// this is a data uri (for example an inline base64 image)
				return rawURL
			}

			if u.Scheme == "" {
				u.Scheme = "https"
			}
			if u.Host == "" {
				u.Host = domain
			}

			return u.String()
		},
	}

	converter := md.NewConverter(d.domainHost(), true, opt)
	// Github flavoured Markdown knows about tables 👍
	converter.Use(mdplugin.GitHubFlavored())

	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("localbackup: failed to convert body to Markdown: %w", err)
	}

	return markdown, nil
}

func (d *WikiBackup) domainHost() string {
	u, err := url.Parse(d.Domain)
	if err != nil || u.Host == "" {
		return d.Domain
	}
	return u.Host
}
