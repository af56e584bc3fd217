package core

// testEndpoint is a small endpoint exercising every field kind.
func testEndpoint(numbers InvalidPolicy) Endpoint {
	return Endpoint{
		Key:        "items",
		Label:      "Items",
		Version:    "test",
		Collection: "items",
		NaturalKey: []string{"item_id"},
		Headers: HeaderMap{
			"Item ID":      "item_id",
			"Name":         "name",
			"Price (USD)":  "price",
			"Price":        "price",
			"Ad Title":     "promo.title",
			"Listed (D-M)": "listed_on",
		},
		Fields: []FieldSpec{
			{Name: "item_id", Kind: KindString, Required: true},
			{Name: "name", Kind: KindString, Required: true},
			{Name: "price", Kind: KindNumber, OnInvalid: numbers},
			{Name: "status", Kind: KindEnum, EnumValues: []int{0, 1}},
			{Name: "listed_on", Kind: KindDate, DateFormat: DateDayMonthYear},
			{Name: "created", Kind: KindDate},
			{Name: "owner", Kind: KindObjectRef},
			{Name: "category", Kind: KindObjectRef},
			{Name: "featured", Kind: KindBoolean},
			{Name: "tags", Kind: KindArraySplit},
			{Name: "promo", Kind: KindNestedObject, Members: []string{"title", "url"}},
		},
	}
}

func rawRow(line int, pairs ...string) RawRow {
	row := RawRow{Line: line}
	for i := 0; i+1 < len(pairs); i += 2 {
		row.Columns = append(row.Columns, Column{Header: pairs[i], Value: pairs[i+1]})
	}
	return row
}
