package listing

import (
	"strings"

	"restate/models"
	"restate/utils"
)

// Validate checks a draft before any network call is made. Numeric fields must
// parse; integer fields are truncated toward zero rather than rejected.
func Validate(draft models.ListingDraft) (models.ValidatedListing, error) {
	verr := &models.ValidationError{}
	out := models.ValidatedListing{
		BuildingName: strings.TrimSpace(draft.BuildingName),
		Address:      strings.TrimSpace(draft.Address),
		Country:      strings.TrimSpace(draft.Country),
		Description:  strings.TrimSpace(draft.Description),
		Exterior:     draft.Exterior,
		Interior:     draft.Interior,
	}

	if out.BuildingName == "" {
		verr.Add("buildingName", "is required")
	}
	if len(draft.Exterior) == 0 {
		verr.Add("exterior", "at least one exterior image is required")
	}
	if len(draft.Interior) == 0 {
		verr.Add("interior", "at least one interior image is required")
	}

	number := func(field, raw string) float64 {
		v, err := utils.ParseNumber(raw)
		if err != nil {
			verr.Add(field, err.Error())
		}
		return v
	}
	integer := func(field, raw string) int {
		v, err := utils.ParseTruncatedInt(raw)
		if err != nil {
			verr.Add(field, err.Error())
		}
		return v
	}

	out.Latitude = number("latitude", draft.Latitude)
	if out.Latitude < -90 || out.Latitude > 90 {
		verr.Add("latitude", "must be between -90 and 90")
	}
	out.Longitude = number("longitude", draft.Longitude)
	if out.Longitude < -180 || out.Longitude > 180 {
		verr.Add("longitude", "must be between -180 and 180")
	}
	out.Price = number("price", draft.Price)
	out.Area = number("area", draft.Area)
	out.Bedrooms = integer("bedrooms", draft.Bedrooms)
	out.Bathrooms = integer("bathrooms", draft.Bathrooms)
	out.YearBuilt = integer("yearBuilt", draft.YearBuilt)

	if t, ok := models.ParsePropertyType(strings.TrimSpace(draft.Type)); ok {
		out.Type = t
	} else {
		verr.Add("type", "must be one of Apartment, House, Office, Villa")
	}

	facilities, bad := normalizeFacilities(draft.Facilities)
	for _, tag := range bad {
		verr.Add("facilities", "unknown facility "+tag)
	}
	out.Facilities = facilities

	if err := verr.OrNil(); err != nil {
		return models.ValidatedListing{}, err
	}
	return out, nil
}

// normalizeFacilities drops duplicates and reports unknown tags.
func normalizeFacilities(tags []string) ([]string, []string) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	var unknown []string
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		if !models.IsFacility(tag) {
			unknown = append(unknown, raw)
			continue
		}
		out = append(out, tag)
	}
	return out, unknown
}
