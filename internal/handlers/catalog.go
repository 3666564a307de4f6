package handlers

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"stitchtales/internal/cache"
	"stitchtales/internal/store"
)

// FeedStore caches rendered catalog documents. *cache.FeedCache satisfies it.
type FeedStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// CatalogSource lists the public pages of the site.
type CatalogSource interface {
	Entries(ctx context.Context) ([]store.CatalogEntry, error)
}

// Catalog serves sitemap.xml and robots.txt.
type Catalog struct {
	source  CatalogSource
	feeds   FeedStore
	siteURL string
}

// NewCatalog creates the catalog handler group. feeds may be nil to render
// on every request.
func NewCatalog(source CatalogSource, feeds FeedStore, siteURL string) *Catalog {
	return &Catalog{source: source, feeds: feeds, siteURL: strings.TrimRight(siteURL, "/")}
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// sitemapRules holds the location pattern, change frequency and priority
// of each kind of page.
var sitemapRules = map[store.CatalogKind]struct {
	path, freq, priority string
}{
	store.CatalogPost:     {"/post/%s/", "weekly", "0.9"},
	store.CatalogCategory: {"/category/%s/", "weekly", "0.7"},
	store.CatalogTag:      {"/tag/%s/", "monthly", "0.6"},
}

// renderSitemap builds the sitemap document for entries.
func (c *Catalog) renderSitemap(entries []store.CatalogEntry) ([]byte, error) {
	doc := urlset{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, e := range entries {
		rule, ok := sitemapRules[e.Kind]
		if !ok {
			continue
		}
		u := sitemapURL{
			Loc:        c.siteURL + fmt.Sprintf(rule.path, e.Slug),
			ChangeFreq: rule.freq,
			Priority:   rule.priority,
		}
		if e.LastMod != nil {
			u.LastMod = e.LastMod.UTC().Format("2006-01-02")
		}
		doc.URLs = append(doc.URLs, u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return buf.Bytes(), nil
}

// Sitemap handles GET /sitemap.xml. The rendered document is cached until
// the next post or taxonomy change.
func (c *Catalog) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if c.feeds != nil {
		if body, ok := c.feeds.Get(ctx, cache.SitemapKey); ok {
			writeXML(w, body)
			return
		}
	}

	entries, err := c.source.Entries(ctx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	body, err := c.renderSitemap(entries)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if c.feeds != nil {
		c.feeds.Set(ctx, cache.SitemapKey, body)
	}
	writeXML(w, body)
}

func writeXML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Robots handles GET /robots.txt.
func (c *Catalog) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "User-agent: *\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", c.siteURL)
}
