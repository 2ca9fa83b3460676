package clinical

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy-assistant-be/pkg/assistant/intent"
)

func TestOpenFDAFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/drug/label.json", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("search"), `openfda.generic_name:"ibuprofen"`)
		assert.Equal(t, "k", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{
			"set_id":"abc",
			"directions":["Adults: take 1 tablet every 4 to 6 hours."],
			"purpose":["Pain reliever/fever reducer"],
			"warnings":["Allergy alert: may cause severe allergic reaction."],
			"openfda":{"brand_name":["Advil"],"generic_name":["IBUPROFEN"]}
		}]}`))
	}))
	defer srv.Close()

	rec, err := NewOpenFDA(srv.URL, "k", srv.Client()).Fetch(context.Background(), "Ibuprofen", intent.HintDosage)

	require.NoError(t, err)
	assert.Equal(t, "Adults: take 1 tablet every 4 to 6 hours.", rec.Dosage)
	assert.Equal(t, "Pain reliever/fever reducer", rec.Usage)
	assert.Contains(t, rec.Warnings, "Allergy alert")
	assert.Equal(t, "Advil", rec.BrandUS)
	assert.Equal(t, []string{"https://dailymed.nlm.nih.gov/dailymed/lookup.cfm?setid=abc"}, rec.Citations)
}

func TestOpenFDANotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"NOT_FOUND"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	rec, err := NewOpenFDA(srv.URL, "", srv.Client()).Fetch(context.Background(), "zyxoflam", intent.HintDosage)

	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
}

func TestOpenFDAServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewOpenFDA(srv.URL, "", srv.Client()).Fetch(context.Background(), "ibuprofen", intent.HintDosage)
	assert.Error(t, err)
}

func TestMedlinePlusFetchStripsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service", r.URL.Path)
		assert.Equal(t, "ibuprofen", r.URL.Query().Get("mainSearchCriteria.v.dn"))
		_, _ = w.Write([]byte(`{"feed":{"entry":[{
			"title":{"_value":"Ibuprofen"},
			"link":[{"href":"https://medlineplus.gov/druginfo/meds/a682159.html"}],
			"summary":{"_value":"<p>Ibuprofen is used to relieve pain &amp; fever.</p><p>It is an NSAID.</p>"}
		}]}}`))
	}))
	defer srv.Close()

	rec, err := NewMedlinePlus(srv.URL, srv.Client()).Fetch(context.Background(), "ibuprofen", intent.HintUsage)

	require.NoError(t, err)
	assert.Equal(t, "Ibuprofen is used to relieve pain & fever. It is an NSAID.", rec.Usage)
	assert.False(t, strings.Contains(rec.Usage, "<p>"))
	assert.Empty(t, rec.Dosage)
	assert.Equal(t, []string{"https://medlineplus.gov/druginfo/meds/a682159.html"}, rec.Citations)
}

func TestMedlinePlusNoEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"feed":{"entry":[]}}`))
	}))
	defer srv.Close()

	rec, err := NewMedlinePlus(srv.URL, srv.Client()).Fetch(context.Background(), "zyxoflam", intent.HintUsage)

	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
}
