package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Details document fields.
const (
	DetailsFieldBuildingName = "buildingName"
	DetailsFieldType         = "type"
	DetailsFieldArea         = "area"
	DetailsFieldBedrooms     = "bedrooms"
	DetailsFieldBathrooms    = "bathrooms"
	DetailsFieldYearBuilt    = "yearBuilt"
	DetailsFieldRating       = "rating"
	DetailsFieldFacilities   = "facilities"
)

// PropertyType classifies a listing.
type PropertyType string

const (
	PropertyApartment PropertyType = "Apartment"
	PropertyHouse     PropertyType = "House"
	PropertyOffice    PropertyType = "Office"
	PropertyVilla     PropertyType = "Villa"
)

// PropertyTypes lists every accepted type.
var PropertyTypes = []PropertyType{PropertyApartment, PropertyHouse, PropertyOffice, PropertyVilla}

// ParsePropertyType matches s against the known types exactly.
func ParsePropertyType(s string) (PropertyType, bool) {
	for _, t := range PropertyTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Facility tags offered when a listing is uploaded.
const (
	FacilityParking      = "parking"
	FacilityGym          = "gym"
	FacilitySwimmingPool = "swimming_pool"
	FacilitySecurity     = "security"
	FacilityElevator     = "elevator"
)

var knownFacilities = map[string]bool{
	FacilityParking:      true,
	FacilityGym:          true,
	FacilitySwimmingPool: true,
	FacilitySecurity:     true,
	FacilityElevator:     true,
}

// IsFacility reports whether tag is a known facility.
func IsFacility(tag string) bool {
	return knownFacilities[tag]
}

// Details is the descriptive half of a listing.
type Details struct {
	ID           string       `json:"id"`
	BuildingName string       `json:"buildingName"`
	Type         PropertyType `json:"type"`
	Area         float64      `json:"area"`
	Bedrooms     int          `json:"bedrooms"`
	Bathrooms    int          `json:"bathrooms"`
	YearBuilt    int          `json:"yearBuilt"`
	Rating       float64      `json:"rating"`
	Facilities   []string     `json:"facilities"`
}

func (d *Details) Document() bson.M {
	return bson.M{
		DetailsFieldBuildingName: d.BuildingName,
		DetailsFieldType:         string(d.Type),
		DetailsFieldArea:         d.Area,
		DetailsFieldBedrooms:     d.Bedrooms,
		DetailsFieldBathrooms:    d.Bathrooms,
		DetailsFieldYearBuilt:    d.YearBuilt,
		DetailsFieldRating:       d.Rating,
		DetailsFieldFacilities:   nonNil(d.Facilities),
	}
}

func DetailsFromDocument(doc bson.M) (*Details, error) {
	id, err := requiredString(doc, FieldID)
	if err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}
	return &Details{
		ID:           id,
		BuildingName: stringField(doc, DetailsFieldBuildingName),
		Type:         PropertyType(stringField(doc, DetailsFieldType)),
		Area:         floatField(doc, DetailsFieldArea),
		Bedrooms:     intField(doc, DetailsFieldBedrooms),
		Bathrooms:    intField(doc, DetailsFieldBathrooms),
		YearBuilt:    intField(doc, DetailsFieldYearBuilt),
		Rating:       floatField(doc, DetailsFieldRating),
		Facilities:   stringList(doc, DetailsFieldFacilities),
	}, nil
}
