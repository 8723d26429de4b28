package upstream

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/pdash/dashboard-gateway/internal/gateway"
)

// Bible implements gateway.BibleClient against the API.Bible REST surface.
type Bible struct {
	appKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewBible(client *http.Client, appKey, baseURL string) *Bible {
	return &Bible{
		appKey:  appKey,
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("bible"),
	}
}

func (p *Bible) header() http.Header {
	h := http.Header{}
	h.Set("api-key", p.appKey)
	return h
}

func (p *Bible) Versions(ctx context.Context) ([]gateway.BibleVersion, error) {
	if p.appKey == "" {
		return nil, &NotConfiguredError{Var: "YOUVERSION_APP_KEY"}
	}

	var payload struct {
		Data []struct {
			ID           string `json:"id"`
			Abbreviation string `json:"abbreviation"`
			Name         string `json:"name"`
			Language     struct {
				Name string `json:"name"`
			} `json:"language"`
		} `json:"data"`
	}
	if err := getJSON(ctx, p.client, p.circuit, "bible", p.baseURL+"/bibles", p.header(), &payload); err != nil {
		return nil, err
	}

	versions := make([]gateway.BibleVersion, 0, len(payload.Data))
	for _, v := range payload.Data {
		versions = append(versions, gateway.BibleVersion{
			ID:           v.ID,
			Abbreviation: v.Abbreviation,
			Name:         v.Name,
			Language:     v.Language.Name,
		})
	}
	return versions, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Passage fetches the text of a USFM passage id in a translation. It returns
// the plain text and the API's canonical human reference.
func (p *Bible) Passage(ctx context.Context, translationID, usfm string) (string, string, error) {
	if p.appKey == "" {
		return "", "", &NotConfiguredError{Var: "YOUVERSION_APP_KEY"}
	}

	values := url.Values{}
	values.Set("content-type", "text")
	values.Set("include-verse-numbers", "false")

	var payload struct {
		Data struct {
			Reference string `json:"reference"`
			Content   string `json:"content"`
		} `json:"data"`
	}
	u := p.baseURL + "/bibles/" + url.PathEscape(translationID) + "/passages/" + url.PathEscape(usfm) + "?" + values.Encode()
	if err := getJSON(ctx, p.client, p.circuit, "bible", u, p.header(), &payload); err != nil {
		return "", "", err
	}

	// The API occasionally returns markup even in text mode.
	text := strings.TrimSpace(tagPattern.ReplaceAllString(payload.Data.Content, ""))
	return text, payload.Data.Reference, nil
}
