package endpoints

import "github.com/JonMunkholm/catalogimport/internal/core"

// Blog status codes.
const (
	BlogDraft     = 0
	BlogPublished = 1
	BlogArchived  = 2
)

var blogHeaders = core.HeaderMap{
	"Slug":     "slug",
	"URL Slug": "slug",

	"Blog Title": "title",
	"Title":      "title",

	"Author ID":   "author",
	"Category ID": "category",

	"Body":           "content",
	"Content (HTML)": "content",

	"Excerpt": "excerpt",
	"Summary": "excerpt",

	"Tags":                   "tags",
	"Tags (comma separated)": "tags",

	"Published (true/false)": "published",
	"Is Published":           "published",

	"Publish Date": "publish_date",
	"Published At": "publish_date",

	"Read Time (minutes)": "read_time",
	"Cover Image URL":     "cover_image",

	"Status (0=Draft, 1=Published, 2=Archived)": "status",
}

// Blogs imports blog posts keyed by slug. Every post must reference an
// existing category; an invalid category id skips the row.
func Blogs() core.Endpoint {
	return core.Endpoint{
		Key:        "blogs",
		Label:      "Blogs",
		Version:    "2024.1",
		Collection: "blogs",
		NaturalKey: []string{"slug"},
		Headers:    merge(blogHeaders, advertisementHeaders),
		Fields: []core.FieldSpec{
			{Name: "slug", Kind: core.KindString, Required: true},
			{Name: "title", Kind: core.KindString, Required: true},
			{Name: "category", Kind: core.KindObjectRef, Required: true},
			{Name: "author", Kind: core.KindObjectRef},
			{Name: "content", Kind: core.KindString},
			{Name: "excerpt", Kind: core.KindString},
			{Name: "tags", Kind: core.KindArraySplit},
			{Name: "published", Kind: core.KindBoolean},
			{Name: "publish_date", Kind: core.KindDate, DateFormat: core.DateFreeForm},
			{Name: "read_time", Kind: core.KindNumber, OnInvalid: core.DropSilently},
			{Name: "status", Kind: core.KindEnum, EnumValues: []int{BlogDraft, BlogPublished, BlogArchived}},
			{Name: "cover_image", Kind: core.KindString},
			advertisement,
		},
	}
}
