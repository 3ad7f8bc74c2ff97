package model

// CountResponse is the body of a _count request.
type CountResponse struct {
	Count  int64  `json:"count"`
	Shards Shards `json:"_shards"`
}

// Shards reports how many shards answered a read. Failed shards make the
// result incomplete.
type Shards struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}
