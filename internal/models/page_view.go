package models

import (
	"time"

	"github.com/radz2291/RZ-Property/internal/utils"
)

// PageView records one public detail page fetch.
type PageView struct {
	Base `bson:",inline"`

	PropertyID utils.SixID `bson:"property_id" json:"propertyId"`
	Path       string      `bson:"path" json:"path"`
	UserAgent  string      `bson:"user_agent,omitempty" json:"userAgent,omitempty"`
	Referrer   string      `bson:"referrer,omitempty" json:"referrer,omitempty"`
	ViewedAt   time.Time   `bson:"viewed_at" json:"viewedAt"`
}

// PropertyViewCount is an aggregation row for analytics.
type PropertyViewCount struct {
	PropertyID utils.SixID `bson:"_id" json:"propertyId"`
	Title      string      `bson:"title" json:"title"`
	Slug       string      `bson:"slug" json:"slug"`
	Views      int64       `bson:"views" json:"views"`
}
