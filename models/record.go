package models

// DescriptionNotFound is recorded when a detail page has no description paragraph
const DescriptionNotFound = "Description not found."

// Link is an anchor found in the listing table
type Link struct {
	Text string
	URL  string // href as written in the listing page
}

// Record is one scraped detail page
type Record struct {
	Text        string
	URL         string
	Description string
	HomepageURL *string // nil when the detail page has no homepage anchor
}

// Homepage returns the homepage URL or an empty string when absent
func (r Record) Homepage() string {
	if r.HomepageURL == nil {
		return ""
	}
	return *r.HomepageURL
}

// CSVHeader is the fixed column order of exported records
var CSVHeader = []string{"text", "url", "description", "homepage_url"}

// Row returns the record's fields in CSVHeader order
func (r Record) Row() []string {
	return []string{r.Text, r.URL, r.Description, r.Homepage()}
}
