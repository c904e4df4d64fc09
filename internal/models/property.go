package models

import (
	"time"

	"github.com/radz2291/RZ-Property/internal/utils"
)

// PropertyCategory is the sale/rent axis.
type PropertyCategory string

const (
	CategoryForSale PropertyCategory = "For Sale"
	CategoryForRent PropertyCategory = "For Rent"
)

// PropertyType classifies the property.
type PropertyType string

const (
	TypeResidential PropertyType = "Residential"
	TypeCommercial  PropertyType = "Commercial"
	TypeLand        PropertyType = "Land"
)

// PropertyStatus is the listing state shown to visitors.
type PropertyStatus string

const (
	StatusAvailable    PropertyStatus = "Available"
	StatusPending      PropertyStatus = "Pending"
	StatusSold         PropertyStatus = "Sold"
	StatusRented       PropertyStatus = "Rented"
	StatusHidden       PropertyStatus = "Hidden"
	StatusNotAvailable PropertyStatus = "Not Available"
)

var (
	AllCategories = []PropertyCategory{CategoryForSale, CategoryForRent}
	AllTypes      = []PropertyType{TypeResidential, TypeCommercial, TypeLand}
	AllStatuses   = []PropertyStatus{StatusAvailable, StatusPending, StatusSold, StatusRented, StatusHidden, StatusNotAvailable}

	// NonPublicStatuses are never returned to visitors.
	NonPublicStatuses = []PropertyStatus{StatusHidden, StatusNotAvailable}
)

func (c PropertyCategory) Valid() bool {
	for _, v := range AllCategories {
		if v == c {
			return true
		}
	}
	return false
}

func (t PropertyType) Valid() bool {
	for _, v := range AllTypes {
		if v == t {
			return true
		}
	}
	return false
}

func (s PropertyStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsPublic reports whether a property in this status may be shown to visitors.
func (s PropertyStatus) IsPublic() bool {
	for _, v := range NonPublicStatuses {
		if v == s {
			return false
		}
	}
	return true
}

// PropertyImage is one entry of a property's gallery.
type PropertyImage struct {
	URL        string    `bson:"url" json:"url"`
	IsHidden   bool      `bson:"is_hidden" json:"isHidden"`
	IsFeatured bool      `bson:"is_featured" json:"isFeatured"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploadedAt"`
	Order      int       `bson:"order" json:"order"`
}

// Property is a listing in the catalog.
type Property struct {
	Base `bson:",inline"`

	Slug              string           `bson:"slug" json:"slug"`
	Title             string           `bson:"title" json:"title"`
	Description       string           `bson:"description" json:"description"`
	AdditionalDetails string           `bson:"additional_details,omitempty" json:"additionalDetails,omitempty"`
	Category          PropertyCategory `bson:"category" json:"category"`
	PropertyType      PropertyType     `bson:"property_type" json:"propertyType"`
	Status            PropertyStatus   `bson:"status" json:"status"`
	Price             float64          `bson:"price" json:"price"` // per month when Category is For Rent
	Size              float64          `bson:"size" json:"size"`
	Bedrooms          int              `bson:"bedrooms" json:"bedrooms"`
	Bathrooms         int              `bson:"bathrooms" json:"bathrooms"`

	Address  string `bson:"address" json:"address"`
	District string `bson:"district" json:"district"`
	City     string `bson:"city" json:"city"`
	State    string `bson:"state" json:"state"`
	Country  string `bson:"country" json:"country"`

	HasParking   bool `bson:"has_parking" json:"hasParking"`
	HasFurnished bool `bson:"has_furnished" json:"hasFurnished"`
	HasAirCon    bool `bson:"has_air_con" json:"hasAirCon"`
	HasBalcony   bool `bson:"has_balcony" json:"hasBalcony"`
	HasGarden    bool `bson:"has_garden" json:"hasGarden"`

	PropertyImages []PropertyImage `bson:"property_images" json:"propertyImages"`
	// Legacy fields, derived from PropertyImages on every write.
	FeaturedImage *string  `bson:"featured_image" json:"featuredImage"`
	Images        []string `bson:"images" json:"images"`

	IsFeatured bool        `bson:"is_featured" json:"isFeatured"`
	ViewCount  int64       `bson:"view_count" json:"viewCount"`
	AgentID    utils.SixID `bson:"agent_id" json:"agentId"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// PricePeriod returns "month" for rentals and "" otherwise.
func (p *Property) PricePeriod() string {
	if p.Category == CategoryForRent {
		return "month"
	}
	return ""
}
