// Package sitemap renders sitemap.xml for the public pages with a Dutch and
// a Romanian alternate per page.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Route struct {
	Path       string
	Priority   float64
	ChangeFreq string
}

// Routes are the indexable pages of the shop.
var Routes = []Route{
	{Path: "/", Priority: 1.0, ChangeFreq: "weekly"},
	{Path: "/order", Priority: 0.9, ChangeFreq: "weekly"},
	{Path: "/products", Priority: 0.8, ChangeFreq: "weekly"},
	{Path: "/packages", Priority: 0.8, ChangeFreq: "weekly"},
	{Path: "/catering", Priority: 0.7, ChangeFreq: "monthly"},
	{Path: "/about", Priority: 0.6, ChangeFreq: "monthly"},
	{Path: "/contact", Priority: 0.6, ChangeFreq: "monthly"},
	{Path: "/privacy", Priority: 0.3, ChangeFreq: "yearly"},
	{Path: "/terms", Priority: 0.3, ChangeFreq: "yearly"},
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	XHTML   string   `xml:"xmlns:xhtml,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
	Links      []link `xml:"xhtml:link"`
}

type link struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// Build renders the sitemap for siteURL. It makes no external calls.
func Build(siteURL string, routes []Route, lastMod time.Time) ([]byte, error) {
	base := strings.TrimRight(siteURL, "/")
	set := urlset{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		XHTML: "http://www.w3.org/1999/xhtml",
		URLs:  make([]entry, 0, len(routes)),
	}

	for _, r := range routes {
		nl := base + r.Path
		ro := nl + "?lang=ro"
		set.URLs = append(set.URLs, entry{
			Loc:        nl,
			LastMod:    lastMod.Format("2006-01-02"),
			ChangeFreq: r.ChangeFreq,
			Priority:   fmt.Sprintf("%.1f", r.Priority),
			Links: []link{
				{Rel: "alternate", Hreflang: "nl", Href: nl},
				{Rel: "alternate", Hreflang: "ro", Href: ro},
				{Rel: "alternate", Hreflang: "x-default", Href: nl},
			},
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Handler serves GET /sitemap.xml.
func Handler(siteURL string, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := Build(siteURL, Routes, time.Now().UTC())
		if err != nil {
			logger.WithError(err).Error("Failed to build sitemap")
			http.Error(w, "failed to build sitemap", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(body)
	}
}
