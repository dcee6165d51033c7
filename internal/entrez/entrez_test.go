// Copyright Peter L. Morrell, 2026. All rights reserved.

package entrez

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pmorrell/Plant-Selection/internal/httputil"
	"github.com/pmorrell/Plant-Selection/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func testClient() *Client {
	return NewClient(types.EntrezConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "test/0.1",
		},
		RequestDelay: time.Nanosecond,
	})
}

// --- ParsePMID ---

func TestParsePMID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
		ok   bool
	}{
		{"plain", "32514106", 32514106, true},
		{"surrounding whitespace", "  32514106\n", 32514106, true},
		{"double quoted", `"32514106"`, 32514106, true},
		{"single quoted", "'32514106'", 32514106, true},
		{"empty", "", 0, false},
		{"whitespace only", "  \t", 0, false},
		{"non-numeric", "PMC12345", 0, false},
		{"embedded letter", "123a456", 0, false},
		{"negative", "-123", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePMID(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParsePMID(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

// --- Related ---

const elinkBody = `{
  "linksets": [
    {
      "dbfrom": "pubmed",
      "ids": ["1000"],
      "linksetdbs": [
        {
          "dbto": "pubmed",
          "linkname": "pubmed_pubmed",
          "links": ["2001", "2002", "2001", " 2003 ", "not-a-pmid"]
        },
        {
          "dbto": "pubmed",
          "linkname": "pubmed_pubmed_citedin",
          "links": ["9999"]
        }
      ]
    }
  ]
}`

func TestRelatedParsesNeighborLinkset(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "1000" {
			t.Errorf("id param = %q, want 1000", got)
		}
		if got := r.URL.Query().Get("cmd"); got != "neighbor" {
			t.Errorf("cmd param = %q, want neighbor", got)
		}
		fmt.Fprint(w, elinkBody)
	}))
	defer ts.Close()

	old := elinkAPIBase
	elinkAPIBase = ts.URL
	defer func() { elinkAPIBase = old }()

	related, err := testClient().Related(context.Background(), 1000)
	if err != nil {
		t.Fatalf("Related() error: %v", err)
	}

	// Duplicates collapsed, non-numeric skipped, citedin linkset ignored.
	want := []int64{2001, 2002, 2003}
	if len(related) != len(want) {
		t.Fatalf("len(related) = %d, want %d (%v)", len(related), len(want), related)
	}
	for i, id := range want {
		if related[i] != id {
			t.Errorf("related[%d] = %d, want %d", i, related[i], id)
		}
	}
}

func TestRelatedSendsAPIKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "secret" {
			t.Errorf("api_key param = %q, want secret", got)
		}
		fmt.Fprint(w, `{"linksets":[]}`)
	}))
	defer ts.Close()

	old := elinkAPIBase
	elinkAPIBase = ts.URL
	defer func() { elinkAPIBase = old }()

	c := NewClient(types.EntrezConfig{
		APIKey:       "secret",
		RequestDelay: time.Nanosecond,
	})
	if _, err := c.Related(context.Background(), 1); err != nil {
		t.Fatalf("Related() error: %v", err)
	}
}

func TestRelatedHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	old := elinkAPIBase
	elinkAPIBase = ts.URL
	defer func() { elinkAPIBase = old }()

	if _, err := testClient().Related(context.Background(), 1000); err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}

func TestRelatedBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer ts.Close()

	old := elinkAPIBase
	elinkAPIBase = ts.URL
	defer func() { elinkAPIBase = old }()

	if _, err := testClient().Related(context.Background(), 1000); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

// --- FetchBatch ---

const efetchBody = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">2001</PMID>
      <Article>
        <ArticleTitle>Whole-genome resequencing of barley landraces</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">We resequenced 100 accessions.</AbstractText>
          <AbstractText Label="RESULTS">Variants were abundant.</AbstractText>
        </Abstract>
        <PublicationTypeList>
          <PublicationType UI="D016428">Journal Article</PublicationType>
        </PublicationTypeList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID Version="1">2002</PMID>
      <Article>
        <ArticleTitle>A review of crop genomics</ArticleTitle>
        <PublicationTypeList>
          <PublicationType UI="D016454">Review</PublicationType>
          <PublicationType UI="D016428">Journal Article</PublicationType>
        </PublicationTypeList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestFetchBatchParsesArticles(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.PostForm.Get("id"); got != "2001,2002" {
			t.Errorf("id param = %q, want 2001,2002", got)
		}
		fmt.Fprint(w, efetchBody)
	}))
	defer ts.Close()

	old := efetchAPIBase
	efetchAPIBase = ts.URL
	defer func() { efetchAPIBase = old }()

	got, err := testClient().FetchBatch(context.Background(), []int64{2001, 2002})
	if err != nil {
		t.Fatalf("FetchBatch() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}

	first := got[2001]
	if first.Title != "Whole-genome resequencing of barley landraces" {
		t.Errorf("title = %q", first.Title)
	}
	if !strings.Contains(first.Abstract, "We resequenced 100 accessions.") ||
		!strings.Contains(first.Abstract, "Variants were abundant.") {
		t.Errorf("abstract sections not joined: %q", first.Abstract)
	}
	if len(first.PubTypes) != 1 || first.PubTypes[0] != "Journal Article" {
		t.Errorf("pub types = %v", first.PubTypes)
	}

	second := got[2002]
	if second.Abstract != "" {
		t.Errorf("abstract for article without one = %q, want empty", second.Abstract)
	}
	if len(second.PubTypes) != 2 {
		t.Errorf("pub types = %v, want two entries", second.PubTypes)
	}
}

func TestFetchBatchEmptyInput(t *testing.T) {
	got, err := testClient().FetchBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchBatch(nil) error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d, want 0", len(got))
	}
}

func TestFetchBatchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	old := efetchAPIBase
	efetchAPIBase = ts.URL
	defer func() { efetchAPIBase = old }()

	if _, err := testClient().FetchBatch(context.Background(), []int64{1}); err == nil {
		t.Fatal("expected error for HTTP 400")
	}
}
