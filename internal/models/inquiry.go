package models

import (
	"time"

	"github.com/radz2291/RZ-Property/internal/utils"
)

// InquiryStatus tracks how far the agent got with a lead. Any status may
// follow any other.
type InquiryStatus string

const (
	InquiryNew       InquiryStatus = "New"
	InquiryContacted InquiryStatus = "Contacted"
	InquiryClosed    InquiryStatus = "Closed"
)

var AllInquiryStatuses = []InquiryStatus{InquiryNew, InquiryContacted, InquiryClosed}

func (s InquiryStatus) Valid() bool {
	for _, v := range AllInquiryStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// InquirySource tells where a lead came from.
type InquirySource string

const (
	SourcePropertyForm   InquirySource = "contact_form"    // property detail page
	SourceGeneralContact InquirySource = "general_contact" // contact page
	SourceWhatsApp       InquirySource = "whatsapp"        // externally referred
)

var AllInquirySources = []InquirySource{SourcePropertyForm, SourceGeneralContact, SourceWhatsApp}

func (s InquirySource) Valid() bool {
	for _, v := range AllInquirySources {
		if v == s {
			return true
		}
	}
	return false
}

// Inquiry is a captured lead.
type Inquiry struct {
	Base `bson:",inline"`

	Name    string        `bson:"name" json:"name"`
	Email   string        `bson:"email,omitempty" json:"email,omitempty"`
	Phone   string        `bson:"phone" json:"phone"`
	Message string        `bson:"message" json:"message"`
	Status  InquiryStatus `bson:"status" json:"status"`
	Source  InquirySource `bson:"source" json:"source"`

	PropertyID    *utils.SixID `bson:"property_id,omitempty" json:"propertyId,omitempty"`
	PropertyTitle string       `bson:"property_title,omitempty" json:"propertyTitle,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
