// Copyright Peter L. Morrell, 2026. All rights reserved.

// Package entrez queries the NCBI E-utilities for related-article links
// (elink) and article metadata (efetch). All requests pass through a shared
// token-bucket limiter so the two clients together respect the NCBI rate
// budget: 3 requests per second without an API key, 10 with one.
package entrez

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pmorrell/Plant-Selection/internal/httputil"
	"github.com/pmorrell/Plant-Selection/pkg/types"
)

// API endpoints. Declared as vars so tests can substitute an httptest server.
var (
	elinkAPIBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/elink.fcgi"
	efetchAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRequestDelay = 500 * time.Millisecond
	defaultTool         = "pubmed-expand"
)

// Client calls the E-utilities with shared throttling and retry behavior.
type Client struct {
	http    *http.Client
	cfg     types.EntrezConfig
	limiter *rate.Limiter
}

// NewClient builds a Client from cfg, applying defaults for the timeout,
// tool name, and minimum inter-request delay.
func NewClient(cfg types.EntrezConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	delay := cfg.RequestDelay
	if delay <= 0 {
		delay = defaultRequestDelay
	}
	if cfg.Tool == "" {
		cfg.Tool = defaultTool
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

// commonParams returns the identification parameters NCBI asks every
// E-utilities caller to send.
func (c *Client) commonParams() url.Values {
	params := url.Values{}
	params.Set("tool", c.cfg.Tool)
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
	return params
}

// Related returns the distinct PMIDs of articles related to pmid, using the
// elink pubmed_pubmed neighbor linkset. Tokens that do not parse as PMIDs
// are skipped.
func (c *Client) Related(ctx context.Context, pmid int64) ([]int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := c.commonParams()
	params.Set("dbfrom", "pubmed")
	params.Set("db", "pubmed")
	params.Set("cmd", "neighbor")
	params.Set("retmode", "json")
	params.Set("id", strconv.FormatInt(pmid, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, elinkAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating elink request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("elink request for %d: %w", pmid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elink returned HTTP %d for %d", resp.StatusCode, pmid)
	}

	var er elinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing elink response for %d: %w", pmid, err)
	}

	seen := make(map[int64]struct{})
	var related []int64
	for _, ls := range er.LinkSets {
		for _, db := range ls.LinkSetDBs {
			if db.LinkName != "pubmed_pubmed" {
				continue
			}
			for _, raw := range db.Links {
				id, ok := ParsePMID(raw)
				if !ok {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				related = append(related, id)
			}
		}
	}
	return related, nil
}

// FetchBatch fetches title, abstract, and publication types for a batch of
// PMIDs via efetch. The request is POSTed because batches of 200 IDs exceed
// comfortable URL lengths. Articles absent from the response are absent from
// the returned map.
func (c *Client) FetchBatch(ctx context.Context, pmids []int64) (map[int64]types.ArticleSummary, error) {
	summaries := make(map[int64]types.ArticleSummary, len(pmids))
	if len(pmids) == 0 {
		return summaries, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ids := make([]string, len(pmids))
	for i, p := range pmids {
		ids[i] = strconv.FormatInt(p, 10)
	}

	params := c.commonParams()
	params.Set("db", "pubmed")
	params.Set("retmode", "xml")
	params.Set("id", strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, efetchAPIBase, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating efetch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("efetch request for %d PMIDs: %w", len(pmids), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("efetch returned HTTP %d for %d PMIDs", resp.StatusCode, len(pmids))
	}

	var set articleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	for _, art := range set.Articles {
		id, ok := ParsePMID(art.PMID)
		if !ok {
			continue
		}
		summaries[id] = types.ArticleSummary{
			PMID:     id,
			Title:    strings.TrimSpace(art.Title),
			Abstract: strings.TrimSpace(strings.Join(art.AbstractTexts, " ")),
			PubTypes: art.PubTypes,
		}
	}
	return summaries, nil
}

// ParsePMID normalizes a raw identifier token (trimming whitespace and
// quoting) and parses it as a PMID. It returns false for anything
// non-numeric rather than propagating an error.
func ParsePMID(s string) (int64, bool) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// elink JSON structures. The JSON retmode returns link IDs as strings.
type elinkResponse struct {
	LinkSets []elinkLinkSet `json:"linksets"`
}

type elinkLinkSet struct {
	DBFrom     string           `json:"dbfrom"`
	IDs        []string         `json:"ids"`
	LinkSetDBs []elinkLinkSetDB `json:"linksetdbs"`
}

type elinkLinkSetDB struct {
	DBTo     string   `json:"dbto"`
	LinkName string   `json:"linkname"`
	Links    []string `json:"links"`
}

// efetch XML structures (PubmedArticleSet).
type articleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID          string   `xml:"MedlineCitation>PMID"`
	Title         string   `xml:"MedlineCitation>Article>ArticleTitle"`
	AbstractTexts []string `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	PubTypes      []string `xml:"MedlineCitation>Article>PublicationTypeList>PublicationType"`
}
