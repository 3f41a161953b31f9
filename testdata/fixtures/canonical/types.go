package canonical

import "time"

//derive:codable
type TestEmbedded struct {
	ID      int       `json:"id" default:"1"`
	Created time.Time `json:"created_at"`
}

//derive:codable
//derive:keys
type TestWidget struct {
	TestEmbedded
	WodgetID int    `json:"wodget_id"`
	Name     string `json:"name" default:"\"widget\""`
	Category *int   `json:"age"`
	cache_   []byte
}

//derive:wrap
//derive:annotate Audited
//derive:codable
type TestWadget struct {
	Ref      string `json:"ref"`
	Key      string `json:"key" derive:"-"`
	DepField string `json:"dep_field"`
}

type TestPlain struct {
	X int
}
