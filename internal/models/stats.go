package models

// Bucket is one period of a histogram.
type Bucket struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// Stats groups the three rollups served together.
type Stats struct {
	Daily   []Bucket `json:"daily"`
	Weekly  []Bucket `json:"weekly"`
	Monthly []Bucket `json:"monthly"`
}
