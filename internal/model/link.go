package model

import "time"

// Link is the single persisted record: a code mapped to its destination.
type Link struct {
	Code      string    `json:"code" bson:"code"`
	URL       string    `json:"url" bson:"url"`
	Clicks    int64     `json:"clicks" bson:"clicks"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// ShortenRequest binds from JSON or from a urlencoded form.
type ShortenRequest struct {
	LongURL string `json:"longUrl" form:"longUrl"`
	Custom  string `json:"custom" form:"custom"`
}

type ShortenResponse struct {
	Code     string `json:"code"`
	ShortURL string `json:"shortUrl"`
}

type StatsResponse struct {
	Code      string    `json:"code"`
	URL       string    `json:"url"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"createdAt"`
}
