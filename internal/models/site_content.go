package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ContentSection discriminates the site content union.
type ContentSection string

const (
	SectionHero ContentSection = "hero"
	SectionFAQ  ContentSection = "faq"
)

// SiteContent is implemented by every typed content section.
type SiteContent interface {
	Section() ContentSection
}

// HeroContent is the homepage banner.
type HeroContent struct {
	Title               string `bson:"title" json:"title"`
	Description         string `bson:"description" json:"description"`
	BackgroundImage     string `bson:"background_image" json:"background_image"`
	PrimaryButtonText   string `bson:"primary_button_text" json:"primary_button_text"`
	PrimaryButtonURL    string `bson:"primary_button_url" json:"primary_button_url"`
	SecondaryButtonText string `bson:"secondary_button_text" json:"secondary_button_text"`
	SecondaryButtonURL  string `bson:"secondary_button_url" json:"secondary_button_url"`
}

func (HeroContent) Section() ContentSection { return SectionHero }

// FAQItem is one question/answer pair.
type FAQItem struct {
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
}

// FAQContent is the FAQ block.
type FAQContent struct {
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Items       []FAQItem `bson:"items" json:"items"`
}

func (FAQContent) Section() ContentSection { return SectionFAQ }

// SiteContentRecord is the stored form: the section payload is kept as a raw
// document and validated against its schema whenever it is read.
type SiteContentRecord struct {
	Base `bson:",inline"`

	Section   ContentSection `bson:"section" json:"section"`
	Content   bson.Raw       `bson:"content" json:"-"`
	UpdatedAt time.Time      `bson:"updated_at" json:"updatedAt"`
}
