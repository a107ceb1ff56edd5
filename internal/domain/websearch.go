package domain

// WebSnippet is one normalized web search result. Every snippet has at least
// a URL and a domain (empty string if the URL is unparseable); title and
// snippet default to empty, published date and score are optional provider
// passthroughs.
type WebSnippet struct {
	URL         string
	Domain      string
	Title       string
	Snippet     string
	PublishedAt string
	Score       float64
}
