package models

import "time"

// Agent is the single business profile listings belong to.
type Agent struct {
	Base `bson:",inline"`

	Name              string   `bson:"name" json:"name"`
	Photo             string   `bson:"photo,omitempty" json:"photo,omitempty"`
	Bio               string   `bson:"bio" json:"bio"`
	PhoneNumber       string   `bson:"phone_number" json:"phoneNumber"`
	WhatsappNumber    string   `bson:"whatsapp_number" json:"whatsappNumber"`
	Email             string   `bson:"email,omitempty" json:"email,omitempty"`
	YearsOfExperience int      `bson:"years_of_experience" json:"yearsOfExperience"`
	Specialties       []string `bson:"specialties" json:"specialties"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
