package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const DefaultRxNormBaseURL = "https://rxnav.nlm.nih.gov/REST"

// RxNorm normalizes names against the NLM RxNav terminology service.
type RxNorm struct {
	baseURL string
	client  *http.Client
}

func NewRxNorm(baseURL string, client *http.Client) *RxNorm {
	if baseURL == "" {
		baseURL = DefaultRxNormBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &RxNorm{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (r *RxNorm) Name() string { return "rxnorm" }

type approximateResponse struct {
	ApproximateGroup struct {
		Candidate []struct {
			RxCUI string `json:"rxcui"`
			Rank  string `json:"rank"`
			Name  string `json:"name"`
		} `json:"candidate"`
	} `json:"approximateGroup"`
}

type relatedResponse struct {
	RelatedGroup struct {
		ConceptGroup []struct {
			TTY               string `json:"tty"`
			ConceptProperties []struct {
				Name string `json:"name"`
			} `json:"conceptProperties"`
		} `json:"conceptGroup"`
	} `json:"relatedGroup"`
}

type propertiesResponse struct {
	Properties struct {
		Name string `json:"name"`
		TTY  string `json:"tty"`
	} `json:"properties"`
}

// Resolve tries the name mapped so far, then the raw name, then the
// inventory's generic hint.
func (r *RxNorm) Resolve(ctx context.Context, c Candidate) (Partial, error) {
	var lastErr error
	for _, term := range searchTerms(c) {
		p, err := r.lookup(ctx, term)
		if err != nil {
			lastErr = err
			continue
		}
		if p.MappedName != "" {
			return p, nil
		}
	}
	if lastErr != nil {
		return Partial{}, lastErr
	}
	return Partial{}, nil
}

func searchTerms(c Candidate) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range []string{c.Current.MappedName, c.RawName, c.GenericHint} {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (r *RxNorm) lookup(ctx context.Context, term string) (Partial, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("maxEntries", "1")

	var approx approximateResponse
	if err := r.get(ctx, "/approximateTerm.json?"+q.Encode(), &approx); err != nil {
		return Partial{}, err
	}
	if len(approx.ApproximateGroup.Candidate) == 0 || approx.ApproximateGroup.Candidate[0].RxCUI == "" {
		return Partial{}, nil
	}
	best := approx.ApproximateGroup.Candidate[0]

	name, err := r.ingredients(ctx, best.RxCUI)
	if err != nil || name == "" {
		var props propertiesResponse
		if perr := r.get(ctx, "/rxcui/"+url.PathEscape(best.RxCUI)+"/properties.json", &props); perr != nil {
			return Partial{}, perr
		}
		name = props.Properties.Name
	}
	if name == "" {
		return Partial{}, nil
	}

	confidence := 0.6
	if best.Rank == "1" {
		confidence = 0.8
	}
	if strings.EqualFold(name, term) {
		confidence = 0.9
	}
	return Partial{
		MappedName: name,
		Confidence: confidence,
		Provenance: rxNormLabel + " (" + r.baseURL + "/rxcui/" + best.RxCUI + ")",
	}, nil
}

// ingredients returns the active ingredients of a concept joined with " / ",
// which turns brand concepts into their generic names.
func (r *RxNorm) ingredients(ctx context.Context, rxcui string) (string, error) {
	var rel relatedResponse
	if err := r.get(ctx, "/rxcui/"+url.PathEscape(rxcui)+"/related.json?tty=IN", &rel); err != nil {
		return "", err
	}
	var names []string
	for _, g := range rel.RelatedGroup.ConceptGroup {
		if g.TTY != "IN" {
			continue
		}
		for _, p := range g.ConceptProperties {
			if p.Name != "" {
				names = append(names, strings.ToLower(p.Name))
			}
		}
	}
	sort.Strings(names)
	return strings.Join(names, " / "), nil
}

func (r *RxNorm) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create rxnorm request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("rxnorm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rxnorm error: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rxnorm response: %w", err)
	}
	return nil
}
