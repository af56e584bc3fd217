package endpoints

import "github.com/JonMunkholm/catalogimport/internal/core"

// Report type codes.
const (
	ReportSyndicated = 1
	ReportCustom     = 2
	ReportBrief      = 3
)

var reportHeaders = core.HeaderMap{
	"Report ID":   "report_id",
	"Report Code": "report_id",

	"Report Title": "report_name",
	"Report Name":  "report_name",
	"Title":        "report_name",

	"No. of Pages": "report_pages",
	"Pages":        "report_pages",

	"Price":       "report_price",
	"Price (USD)": "report_price",

	"Discount (%)": "discount",

	"Publish Date (DD-MM-YYYY)": "publish_date",
	"Published On":              "publish_date",

	"Category ID (24-char hex)": "category",
	"Category ID":               "category",

	"Report Type (1=Syndicated, 2=Custom, 3=Brief)": "report_type",
	"Status (1=Active, 0=Inactive)":                 "status",
	"Featured (true/false)":                         "is_featured",
	"Keywords (comma separated)":                    "keywords",

	"Summary":          "summary",
	"TOC":              "table_of_contents",
	"Meta Title":       "meta_title",
	"Meta Description": "meta_description",
}

// Reports is the current report import. Invalid numbers are reported.
func Reports() core.Endpoint {
	return reportEndpoint("reports", "Reports", core.DropWithError)
}

// ReportsLegacy accepts the same files as Reports but drops invalid numbers
// without reporting them, as the old bulk upload page did. Both
// behaviours are kept until the catalog team decides which one is wanted.
func ReportsLegacy() core.Endpoint {
	return reportEndpoint("reports-legacy", "Reports (legacy upload)", core.DropSilently)
}

func reportEndpoint(key, label string, numbers core.InvalidPolicy) core.Endpoint {
	return core.Endpoint{
		Key:        key,
		Label:      label,
		Version:    "2024.2",
		Collection: "reports",
		NaturalKey: []string{"report_id"},
		Headers:    merge(reportHeaders, advertisementHeaders),
		Fields: []core.FieldSpec{
			{Name: "report_id", Kind: core.KindString, Required: true},
			{Name: "report_name", Kind: core.KindString, Required: true},
			{Name: "report_pages", Kind: core.KindNumber, OnInvalid: numbers},
			{Name: "report_price", Kind: core.KindNumber, OnInvalid: numbers},
			{Name: "discount", Kind: core.KindNumber, OnInvalid: numbers},
			{Name: "publish_date", Kind: core.KindDate, DateFormat: core.DateDayMonthYear},
			{Name: "category", Kind: core.KindObjectRef},
			{Name: "report_type", Kind: core.KindEnum, EnumValues: []int{ReportSyndicated, ReportCustom, ReportBrief}},
			{Name: "status", Kind: core.KindEnum, EnumValues: []int{0, 1}},
			{Name: "is_featured", Kind: core.KindBoolean},
			{Name: "keywords", Kind: core.KindArraySplit},
			{Name: "summary", Kind: core.KindString},
			{Name: "table_of_contents", Kind: core.KindString},
			{Name: "meta_title", Kind: core.KindString},
			{Name: "meta_description", Kind: core.KindString},
			advertisement,
		},
	}
}
