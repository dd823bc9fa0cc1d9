package catalog

import "github.com/vedsharma/momentscli/internal/model"

const (
	docsBaseURL = "https://docs.momentscience.com"

	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var jsonHeaders = []Header{{Name: "Content-Type", Value: "application/json"}}

// object builds a nested default from name, value pairs in order
func object(pairs ...string) *model.Object {
	o := model.NewObject()
	for i := 0; i+1 < len(pairs); i += 2 {
		o.Set(pairs[i], pairs[i+1])
	}
	return o
}

func str(name, def string) BodyField {
	return BodyField{Name: name, Default: def, Kind: KindString}
}

// Builtin returns the built-in MomentScience endpoints
func Builtin() []Endpoint {
	return []Endpoint{
		{
			ID:          "moments",
			Name:        "Moments API",
			Description: "Deliver relevant perks at key customer journey moments to boost loyalty and engagement",
			Method:      "POST",
			BaseURL:     "https://api.adspostx.com/native/v2/offers.json",
			DocsURL:     docsBaseURL + "/moments-api",
			Headers:     jsonHeaders,
			Body: []BodyField{
				str("dev", "1"),
				str("ip", "192.168.1.1"),
				str("ua", desktopUA),
				str("membershipID", ""),
				str("adpx_fp", ""),
				str("pub_user_id", ""),
				str("sub_id", ""),
				str("placement", "homepage"),
				str("country", "US"),
				str("state", ""),
				str("city", ""),
				str("zip", ""),
				str("age", ""),
				str("gender", ""),
				str("device_type", "desktop"),
			},
			RequiresBody: true,
		},
		{
			ID:          "perkswall",
			Name:        "Perkswall API",
			Description: "Access curated perks in a central location for customers - your unique destination to reward and retain",
			Method:      "POST",
			BaseURL:     "https://api.adspostx.com/native/v4/perkswall.json",
			DocsURL:     docsBaseURL + "/perkswall-api",
			Headers:     jsonHeaders,
			Body: []BodyField{
				str("sub_id", ""),
				str("adpx_fp", ""),
				str("pub_user_id", ""),
				str("device_type", "web"),
				str("country", "US"),
				str("state", ""),
				str("city", ""),
				str("zip", ""),
				str("ip", "192.168.1.1"),
				str("ua", desktopUA),
				str("age", ""),
				str("gender", ""),
				str("interests", ""),
				str("platform", "web"),
			},
			RequiresBody: true,
		},
		{
			ID:          "catalog",
			Name:        "Offer Catalog API",
			Description: "Browse the complete catalog of available offers and perks from major brands across all verticals",
			Method:      "GET",
			BaseURL:     "https://api.adspostx.com/native/v3/catalog.json",
			DocsURL:     docsBaseURL + "/offer-catalog-api",
			Headers:     jsonHeaders,
			QueryParams: []QueryParam{
				{Name: "category", Default: ""},
				{Name: "country", Default: "US"},
				{Name: "limit", Default: "50"},
				{Name: "offset", Default: "0"},
			},
			Body: []BodyField{
				{
					Name: "filters",
					Default: object(
						"category", "",
						"brand", "",
						"min_payout", "",
						"max_payout", "",
						"device_type", "web",
					),
					Kind: KindObject,
				},
			},
			RequiresBody: true,
		},
		{
			ID:          "reporting",
			Name:        "Reporting API",
			Description: "Access comprehensive analytics and activity reports for tracking performance and conversions",
			Method:      "GET",
			BaseURL:     "https://api.adspostx.com/native/activity.json",
			DocsURL:     docsBaseURL + "/reporting-api",
			QueryParams: []QueryParam{
				{Name: "start_date", Default: ""},
				{Name: "end_date", Default: ""},
				{Name: "group_by", Default: "date"},
				{Name: "timezone", Default: "UTC"},
				{Name: "format", Default: "json"},
			},
			RequiresBody: false,
		},
	}
}

// Default returns a catalog of the built-in endpoints
func Default() *Catalog {
	c, err := New(Builtin())
	if err != nil {
		panic("builtin catalog is invalid: " + err.Error())
	}
	return c
}
