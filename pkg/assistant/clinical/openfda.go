package clinical

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"pharmacy-assistant-be/pkg/assistant/intent"
)

const DefaultOpenFDABaseURL = "https://api.fda.gov"

// OpenFDA reads structured product labels from the openFDA drug label API.
type OpenFDA struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Provider = &OpenFDA{}

func NewOpenFDA(baseURL, apiKey string, client *http.Client) *OpenFDA {
	if baseURL == "" {
		baseURL = DefaultOpenFDABaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenFDA{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

func (o *OpenFDA) Name() string { return "OpenFDA" }

type labelResponse struct {
	Results []labelResult `json:"results"`
}

type labelResult struct {
	SetID                    string   `json:"set_id"`
	DosageAndAdministration  []string `json:"dosage_and_administration"`
	IndicationsAndUsage      []string `json:"indications_and_usage"`
	Purpose                  []string `json:"purpose"`
	AdverseReactions         []string `json:"adverse_reactions"`
	Warnings                 []string `json:"warnings"`
	WarningsAndCautions      []string `json:"warnings_and_cautions"`
	BoxedWarning             []string `json:"boxed_warning"`
	Directions               []string `json:"directions"`
	StopUse                  []string `json:"stop_use"`
	OpenFDA                  struct {
		BrandName   []string `json:"brand_name"`
		GenericName []string `json:"generic_name"`
	} `json:"openfda"`
}

func (o *OpenFDA) Fetch(ctx context.Context, drugName string, _ intent.Hint) (Record, error) {
	name := strings.ToLower(strings.TrimSpace(drugName))
	if name == "" {
		return Record{}, nil
	}

	q := url.Values{}
	q.Set("search", fmt.Sprintf(`openfda.generic_name:"%s" OR openfda.brand_name:"%s"`, name, name))
	q.Set("limit", "1")
	if o.apiKey != "" {
		q.Set("api_key", o.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/drug/label.json?"+q.Encode(), nil)
	if err != nil {
		return Record{}, fmt.Errorf("create openfda request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("openfda request failed: %w", err)
	}
	defer resp.Body.Close()

	// openFDA answers 404 when the search matches nothing
	if resp.StatusCode == http.StatusNotFound {
		return Record{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Record{}, fmt.Errorf("openfda error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Record{}, fmt.Errorf("decode openfda response: %w", err)
	}
	if len(out.Results) == 0 {
		return Record{}, nil
	}
	return out.Results[0].toRecord(), nil
}

func (l labelResult) toRecord() Record {
	rec := Record{
		Dosage:      excerpt(first(l.DosageAndAdministration, l.Directions), 700),
		Usage:       excerpt(first(l.IndicationsAndUsage, l.Purpose), 500),
		SideEffects: excerpt(first(l.AdverseReactions, l.StopUse), 600),
		Warnings:    excerpt(first(l.BoxedWarning, l.WarningsAndCautions, l.Warnings), 600),
	}
	if len(l.OpenFDA.BrandName) > 0 {
		rec.BrandUS = l.OpenFDA.BrandName[0]
	}
	if l.SetID != "" {
		rec.Citations = []string{"https://dailymed.nlm.nih.gov/dailymed/lookup.cfm?setid=" + l.SetID}
	}
	return rec
}

func first(sections ...[]string) string {
	for _, s := range sections {
		joined := strings.TrimSpace(strings.Join(s, " "))
		if joined != "" {
			return joined
		}
	}
	return ""
}
