package mapping

import (
	"github.com/starford/mia/internal/codec"
	"github.com/starford/mia/internal/notion"
	"github.com/starford/mia/internal/schema"
)

// Summary is the normalized view of one Notion page.
type Summary struct {
	ID     string        `json:"id"`
	URL    string        `json:"url,omitempty"`
	Fields schema.Record `json:"fields"`
}

// Summarize decodes every mapped column of page. Columns missing from the
// page decode to their empty value; unmapped columns are ignored.
func Summarize(c *schema.Collection, page notion.Page) Summary {
	fields := make(schema.Record, len(c.Fields))
	for _, f := range c.Fields {
		p, ok := page.Properties[f.Column]
		if !ok {
			fields[f.Name] = codec.Empty(f.Type)
			continue
		}
		v := codec.Decode(f.Type, p)
		if f.Integer {
			v = codec.Truncate(v)
		}
		fields[f.Name] = v
	}
	return Summary{ID: page.ID, URL: page.URL, Fields: fields}
}

// SummarizeAll summarizes pages in order.
func SummarizeAll(c *schema.Collection, pages []notion.Page) []Summary {
	out := make([]Summary, len(pages))
	for i, p := range pages {
		out[i] = Summarize(c, p)
	}
	return out
}
