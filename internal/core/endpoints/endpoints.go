// Package endpoints defines the catalog import endpoints.
//
// Each endpoint is a plain core.Endpoint value: the accepted legacy headers,
// the canonical field specs and the natural key. Change Version whenever a
// header or field changes so import history can be correlated with the schema
// that produced it.
package endpoints

import "github.com/JonMunkholm/catalogimport/internal/core"

// All returns every catalog import endpoint.
func All() []core.Endpoint {
	return []core.Endpoint{
		Reports(),
		ReportsLegacy(),
		Blogs(),
	}
}

// Registry builds a registry of All endpoints.
func Registry() (*core.Registry, error) {
	return core.NewRegistry(All()...)
}

// advertisement is the nested promo block shared by reports and blogs.
var advertisement = core.FieldSpec{
	Name:    "advertisement",
	Kind:    core.KindNestedObject,
	Members: []string{"title", "description", "url"},
}

var advertisementHeaders = core.HeaderMap{
	"Ad Title":       "advertisement.title",
	"Ad Description": "advertisement.description",
	"Ad URL":         "advertisement.url",
	"Ad Link":        "advertisement.url",
}

func merge(maps ...core.HeaderMap) core.HeaderMap {
	out := core.HeaderMap{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
