package dataset

import (
	"context"
	"fmt"
	"strings"
)

// DefaultBaseURL is the root of the BLS time-series flat-file archive.
const DefaultBaseURL = "https://download.bls.gov/pub/time.series/"

// Survey is one pre-configured dataset: the observation file plus the
// metadata files that describe its series.
type Survey struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Files   []NamedURL `json:"files"`
	Options Options    `json:"-"`
}

var defaultOptions = Options{
	CoerceValue:     true,
	DeriveDate:      true,
	DropCodeColumns: true,
}

// surveyDefs lists file paths relative to the archive root. The "data"
// entry is the join base; the rest are metadata lookups in join order.
var surveyDefs = []Survey{
	{
		ID:   "ln",
		Name: "Labor Force Statistics (CPS)",
		Files: []NamedURL{
			{Name: "data", URL: "ln/ln.data.1.AllData"},
			{Name: "series", URL: "ln/ln.series"},
			{Name: "lfst", URL: "ln/ln.lfst"},
			{Name: "periodicity", URL: "ln/ln.periodicity"},
		},
	},
	{
		ID:   "cu",
		Name: "Consumer Price Index (All Urban Consumers)",
		Files: []NamedURL{
			{Name: "data", URL: "cu/cu.data.0.Current"},
			{Name: "series", URL: "cu/cu.series"},
			{Name: "item", URL: "cu/cu.item"},
			{Name: "area", URL: "cu/cu.area"},
		},
	},
	{
		ID:   "ce",
		Name: "Current Employment Statistics (National)",
		Files: []NamedURL{
			{Name: "data", URL: "ce/ce.data.0.AllCESSeries"},
			{Name: "series", URL: "ce/ce.series"},
			{Name: "industry", URL: "ce/ce.industry"},
			{Name: "datatype", URL: "ce/ce.datatype"},
		},
	},
	{
		ID:   "ap",
		Name: "Average Price Data",
		Files: []NamedURL{
			{Name: "data", URL: "ap/ap.data.0.Current"},
			{Name: "series", URL: "ap/ap.series"},
			{Name: "item", URL: "ap/ap.item"},
			{Name: "area", URL: "ap/ap.area"},
		},
	},
}

// Catalog returns every known survey with URLs resolved against baseURL.
// An empty baseURL means the public archive.
func Catalog(baseURL string) []Survey {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/") + "/"

	out := make([]Survey, len(surveyDefs))
	for i, def := range surveyDefs {
		s := Survey{ID: def.ID, Name: def.Name, Options: defaultOptions}
		s.Options.Label = def.ID
		s.Files = make([]NamedURL, len(def.Files))
		for j, f := range def.Files {
			s.Files[j] = NamedURL{Name: f.Name, URL: baseURL + f.URL}
		}
		out[i] = s
	}
	return out
}

// LookupSurvey finds one survey by ID.
func LookupSurvey(baseURL, id string) (*Survey, bool) {
	for _, s := range Catalog(baseURL) {
		if s.ID == id {
			return &s, true
		}
	}
	return nil, false
}

// Load fetches and joins a cataloged survey.
func (c *Collector) Load(ctx context.Context, baseURL, surveyID string) (*Collection, error) {
	s, ok := LookupSurvey(baseURL, surveyID)
	if !ok {
		return nil, fmt.Errorf("unknown survey %q", surveyID)
	}
	return c.Collect(ctx, s.Files, s.Options)
}
