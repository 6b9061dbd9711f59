package dooray

import (
	"fmt"
	"net/http"
	"net/url"
)

// NewAPI builds a client for the Dooray tenant API, e.g. https://api.dooray.com.
func NewAPI(baseURL string, token string) (*API, error) {

	if baseURL == "" {
		return &API{}, fmt.Errorf("dooray: configure your Dooray API base URL with --base-url")
	}
	if token == "" {
		return &API{}, fmt.Errorf("dooray: auth token is empty, please check auth-token-cmd")
	}

	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("dooray: couldn't parse REST API URL: %w", err)
	}

	a := &API{
		BaseURI: u,
		token:   token,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Base URI of the Dooray tenant API, e.g. https://api.dooray.com
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Personal API token, sent as "Authorization: dooray-api <token>"
	token string
}
