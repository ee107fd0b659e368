// Package classify assigns a category to ingested text using fixed
// keyword tables. Classification is deterministic: the same text always
// yields the same category.
package classify

import "strings"

// Category is the document category assigned during ingestion.
type Category string

const (
	CategoryOutage Category = "outage" // utility outage announcements
	CategoryEvent  Category = "event"  // public events, sports, concerts
	CategoryNews   Category = "news"   // everything else
)

// Keyword tables are matched as case-insensitive substrings. Order
// matters: outage is checked before event, and the first match wins.
var (
	outageKeywords = []string{"отключ", "электричество", "вода", "газ"}
	eventKeywords  = []string{"мероприят", "событ", "концерт", "фестиваль", "тренир", "секци", "спорт"}
)

// Classify tags text with a category. Text matching no keyword table is
// classified as news.
func Classify(text string) Category {
	lower := strings.ToLower(text)

	for _, kw := range outageKeywords {
		if strings.Contains(lower, kw) {
			return CategoryOutage
		}
	}
	for _, kw := range eventKeywords {
		if strings.Contains(lower, kw) {
			return CategoryEvent
		}
	}
	return CategoryNews
}
