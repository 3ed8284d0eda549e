package feeds

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Example News</title>
    <item>
      <title>First &amp; Foremost</title>
      <link>https://example.com/first</link>
      <guid>tag:example.com,2024:first</guid>
      <description>&lt;p&gt;A &lt;b&gt;bold&lt;/b&gt; start to the day.&lt;/p&gt;</description>
      <pubDate>Mon, 02 Sep 2024 08:30:00 +0000</pubDate>
      <enclosure url="https://example.com/first.jpg" type="image/jpeg" length="1234"/>
    </item>
    <item>
      <title>No GUID Here</title>
      <link>https://example.com/second</link>
      <description>Short.</description>
      <pubDate>not a date</pubDate>
    </item>
    <item>
      <description>Neither title nor link</description>
    </item>
  </channel>
</rss>`

const atomSample = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Feed</title>
  <entry>
    <title>Atom Entry</title>
    <id>urn:uuid:60a76c80-d399-11d9-b93C-0003939e0af6</id>
    <link rel="alternate" href="https://example.com/atom-entry"/>
    <link rel="enclosure" type="image/png" href="https://example.com/atom.png"/>
    <summary>An atom summary.</summary>
    <published>2024-09-02T10:00:00Z</published>
  </entry>
</feed>`

func TestParseRSS(t *testing.T) {
	items, err := Parse([]byte(rssSample))
	require.NoError(t, err)
	require.Len(t, items, 2, "item without title and link is dropped")

	first := items[0]
	assert.Equal(t, "First & Foremost", first.Title)
	assert.Equal(t, "https://example.com/first", first.Link)
	assert.Equal(t, "tag:example.com,2024:first", first.GUID)
	assert.Equal(t, "A bold start to the day.", first.Summary)
	assert.Equal(t, "https://example.com/first.jpg", first.ImageURL)
	assert.Equal(t, time.Date(2024, 9, 2, 8, 30, 0, 0, time.UTC), first.PublishedAt.UTC())

	second := items[1]
	assert.Equal(t, "https://example.com/second", second.GUID, "guid falls back to link")
	assert.True(t, second.PublishedAt.IsZero(), "unparseable date yields zero time")
}

func TestParseAtom(t *testing.T) {
	items, err := Parse([]byte(atomSample))
	require.NoError(t, err)
	require.Len(t, items, 1)

	entry := items[0]
	assert.Equal(t, "Atom Entry", entry.Title)
	assert.Equal(t, "https://example.com/atom-entry", entry.Link)
	assert.Equal(t, "urn:uuid:60a76c80-d399-11d9-b93C-0003939e0af6", entry.GUID)
	assert.Equal(t, "An atom summary.", entry.Summary)
	assert.Equal(t, "https://example.com/atom.png", entry.ImageURL)
	assert.Equal(t, time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC), entry.PublishedAt.UTC())
}

func TestParseRejectsNonFeedDocuments(t *testing.T) {
	_, err := Parse([]byte(`<html><body>nope</body></html>`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"not": "xml"}`))
	assert.Error(t, err)
}

func TestSummarizeTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", SummaryLimit+50)
	got := Summarize(long)

	runes := []rune(got)
	assert.Equal(t, SummaryLimit+1, len(runes), "limit runes plus ellipsis")
	assert.Equal(t, '…', runes[len(runes)-1])
	assert.NotContains(t, got, "�", "no broken runes from byte-level cuts")
}

func TestSummarizeStripsMarkupAndEntities(t *testing.T) {
	got := Summarize("<div>Tom &amp; Jerry\n\n  <img src='x'/>  ran&nbsp;fast</div>")
	assert.Equal(t, "Tom & Jerry ran fast", got)
}
