package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Building document fields.
const (
	BuildingFieldName           = "buildingName"
	BuildingFieldAddress        = "address"
	BuildingFieldCountry        = "country"
	BuildingFieldLatitude       = "latitude"
	BuildingFieldLongitude      = "longitude"
	BuildingFieldPrice          = "price"
	BuildingFieldDescription    = "description"
	BuildingFieldExteriorImages = "exteriorImage_url"
	BuildingFieldAllImages      = "allImages_url"
	BuildingFieldFeatureImages  = "features_image_url"
	BuildingFieldFeatureVectors = "features_feature_vector"
	BuildingFieldReviews        = "reviews"
	BuildingFieldDetail         = "detail"
)

// Building is the public half of a listing.
type Building struct {
	ID                string    `json:"id"`
	BuildingName      string    `json:"buildingName"`
	Address           string    `json:"address"`
	Country           string    `json:"country"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Price             float64   `json:"price"`
	Description       string    `json:"description"`
	ExteriorImageURLs []string  `json:"exteriorImage_url"`
	AllImageURLs      []string  `json:"allImages_url"`
	FeatureImageURLs  []string  `json:"features_image_url"`
	FeatureVectors    []string  `json:"features_feature_vector"`
	Reviews           []string  `json:"reviews"`
	DetailID          string    `json:"detail"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Document converts the building to its stored field set. The id and
// timestamps are owned by the store and are not included.
func (b *Building) Document() bson.M {
	return bson.M{
		BuildingFieldName:           b.BuildingName,
		BuildingFieldAddress:        b.Address,
		BuildingFieldCountry:        b.Country,
		BuildingFieldLatitude:       b.Latitude,
		BuildingFieldLongitude:      b.Longitude,
		BuildingFieldPrice:          b.Price,
		BuildingFieldDescription:    b.Description,
		BuildingFieldExteriorImages: nonNil(b.ExteriorImageURLs),
		BuildingFieldAllImages:      nonNil(b.AllImageURLs),
		BuildingFieldFeatureImages:  nonNil(b.FeatureImageURLs),
		BuildingFieldFeatureVectors: nonNil(b.FeatureVectors),
		BuildingFieldReviews:        nonNil(b.Reviews),
		BuildingFieldDetail:         b.DetailID,
	}
}

// BuildingFromDocument decodes a stored building, rejecting documents that
// lack an id or name or whose feature lists are misaligned.
func BuildingFromDocument(doc bson.M) (*Building, error) {
	id, err := requiredString(doc, FieldID)
	if err != nil {
		return nil, fmt.Errorf("building: %w", err)
	}
	name, err := requiredString(doc, BuildingFieldName)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", id, err)
	}

	b := &Building{
		ID:                id,
		BuildingName:      name,
		Address:           stringField(doc, BuildingFieldAddress),
		Country:           stringField(doc, BuildingFieldCountry),
		Latitude:          floatField(doc, BuildingFieldLatitude),
		Longitude:         floatField(doc, BuildingFieldLongitude),
		Price:             floatField(doc, BuildingFieldPrice),
		Description:       stringField(doc, BuildingFieldDescription),
		ExteriorImageURLs: stringList(doc, BuildingFieldExteriorImages),
		AllImageURLs:      stringList(doc, BuildingFieldAllImages),
		FeatureImageURLs:  stringList(doc, BuildingFieldFeatureImages),
		FeatureVectors:    stringList(doc, BuildingFieldFeatureVectors),
		Reviews:           RefIDs(doc[BuildingFieldReviews]),
		DetailID:          detailRef(doc[BuildingFieldDetail]),
		CreatedAt:         timeField(doc, FieldCreatedAt),
	}
	if len(b.FeatureImageURLs) != len(b.FeatureVectors) {
		return nil, fmt.Errorf("building %s: %d feature images but %d feature vectors", id, len(b.FeatureImageURLs), len(b.FeatureVectors))
	}
	return b, nil
}

// detailRef accepts the detail link either as a raw id or an expanded document.
func detailRef(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return RefID(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
