package clinical

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"pharmacy-assistant-be/pkg/assistant/intent"
)

const (
	DefaultMedlinePlusBaseURL = "https://connect.medlineplus.gov"
	rxNormCodeSystem          = "2.16.840.1.113883.6.88"
)

// MedlinePlus asks MedlinePlus Connect for the consumer health summary of a drug.
// Summaries are general, so they only fill usage.
type MedlinePlus struct {
	baseURL string
	client  *http.Client
	policy  *bluemonday.Policy
}

var _ Provider = &MedlinePlus{}

func NewMedlinePlus(baseURL string, client *http.Client) *MedlinePlus {
	if baseURL == "" {
		baseURL = DefaultMedlinePlusBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &MedlinePlus{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		policy:  bluemonday.StrictPolicy(),
	}
}

func (m *MedlinePlus) Name() string { return "MedlinePlus" }

type connectResponse struct {
	Feed struct {
		Entry []struct {
			Title struct {
				Value string `json:"_value"`
			} `json:"title"`
			Link []struct {
				Href string `json:"href"`
			} `json:"link"`
			Summary struct {
				Value string `json:"_value"`
			} `json:"summary"`
		} `json:"entry"`
	} `json:"feed"`
}

func (m *MedlinePlus) Fetch(ctx context.Context, drugName string, _ intent.Hint) (Record, error) {
	name := strings.TrimSpace(drugName)
	if name == "" {
		return Record{}, nil
	}

	q := url.Values{}
	q.Set("mainSearchCriteria.v.cs", rxNormCodeSystem)
	q.Set("mainSearchCriteria.v.dn", name)
	q.Set("informationRecipient.languageCode.c", "en")
	q.Set("knowledgeResponseType", "application/json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/service?"+q.Encode(), nil)
	if err != nil {
		return Record{}, fmt.Errorf("create medlineplus request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("medlineplus request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Record{}, fmt.Errorf("medlineplus error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out connectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Record{}, fmt.Errorf("decode medlineplus response: %w", err)
	}

	for _, e := range out.Feed.Entry {
		summary := m.plainText(e.Summary.Value)
		if summary == "" {
			continue
		}
		rec := Record{Usage: excerpt(summary, 600)}
		if len(e.Link) > 0 && e.Link[0].Href != "" {
			rec.Citations = []string{e.Link[0].Href}
		}
		return rec, nil
	}
	return Record{}, nil
}

func (m *MedlinePlus) plainText(s string) string {
	// block tags would otherwise glue words together once stripped
	s = strings.NewReplacer("</p>", " </p>", "<br>", " <br>", "</li>", " </li>").Replace(s)
	return strings.TrimSpace(html.UnescapeString(m.policy.Sanitize(s)))
}
