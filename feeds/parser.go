// Package feeds parses RSS 2.0 and Atom documents into normalized items for
// the news widget. Parsing is a single pass over the XML; summaries are
// stripped of markup, entity-decoded and truncated.
package feeds

import (
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"
)

// SummaryLimit is the maximum summary length in runes. Longer summaries are
// cut on a rune boundary and terminated with an ellipsis.
const SummaryLimit = 280

// Item is one normalized feed entry.
type Item struct {
	Title       string
	Link        string
	GUID        string
	Summary     string
	ImageURL    string
	PublishedAt time.Time // zero when the feed has no parseable date
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Date        string `xml:"date"` // dc:date fallback
	Enclosure   struct {
		URL  string `xml:"url,attr"`
		Type string `xml:"type,attr"`
	} `xml:"enclosure"`
	MediaContent struct {
		URL string `xml:"url,attr"`
	} `xml:"content"`
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string `xml:"title"`
	ID      string `xml:"id"`
	Summary string `xml:"summary"`
	Content string `xml:"content"`
	Links   []struct {
		Rel  string `xml:"rel,attr"`
		Type string `xml:"type,attr"`
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
}

// Parse converts an RSS 2.0 or Atom document into normalized items. Items
// without a title and link are dropped; a missing guid falls back to the link.
func Parse(data []byte) ([]Item, error) {
	var rss rssDocument
	if err := xml.Unmarshal(data, &rss); err == nil {
		return normalizeRSS(rss.Channel.Items), nil
	}

	var atom atomFeed
	if err := xml.Unmarshal(data, &atom); err == nil {
		return normalizeAtom(atom.Entries), nil
	}

	return nil, fmt.Errorf("feeds: document is neither RSS nor Atom")
}

func normalizeRSS(raw []rssItem) []Item {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		item := Item{
			Title:       cleanText(r.Title),
			Link:        strings.TrimSpace(r.Link),
			GUID:        strings.TrimSpace(r.GUID),
			Summary:     Summarize(r.Description),
			PublishedAt: parseDate(r.PubDate, r.Date),
		}
		if item.Title == "" && item.Link == "" {
			continue
		}
		if item.GUID == "" {
			item.GUID = item.Link
		}
		if strings.HasPrefix(r.Enclosure.Type, "image/") {
			item.ImageURL = r.Enclosure.URL
		} else if r.MediaContent.URL != "" {
			item.ImageURL = r.MediaContent.URL
		}
		items = append(items, item)
	}
	return items
}

func normalizeAtom(raw []atomEntry) []Item {
	items := make([]Item, 0, len(raw))
	for _, e := range raw {
		summary := e.Summary
		if summary == "" {
			summary = e.Content
		}
		item := Item{
			Title:       cleanText(e.Title),
			GUID:        strings.TrimSpace(e.ID),
			Summary:     Summarize(summary),
			PublishedAt: parseDate(e.Published, e.Updated),
		}
		for _, l := range e.Links {
			switch l.Rel {
			case "", "alternate":
				if item.Link == "" {
					item.Link = strings.TrimSpace(l.Href)
				}
			case "enclosure":
				if strings.HasPrefix(l.Type, "image/") {
					item.ImageURL = l.Href
				}
			}
		}
		if item.Title == "" && item.Link == "" {
			continue
		}
		if item.GUID == "" {
			item.GUID = item.Link
		}
		items = append(items, item)
	}
	return items
}

// Summarize strips markup from feed HTML, decodes entities, collapses
// whitespace and truncates to SummaryLimit runes.
func Summarize(s string) string {
	text := cleanText(s)
	runes := []rune(text)
	if len(runes) <= SummaryLimit {
		return text
	}
	return strings.TrimSpace(string(runes[:SummaryLimit])) + "…"
}

// cleanText removes tags, decodes HTML entities and collapses whitespace.
func cleanText(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate tries each candidate string against the known feed date formats
// and returns the first match, or the zero time.
func parseDate(candidates ...string) time.Time {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
