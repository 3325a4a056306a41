package ml

import (
	"encoding/json"
	"fmt"

	"house-price-api/internal/common"
)

// Record is one house as decoded from a request: feature name to JSON value.
// Keys the artifact does not use are carried along and ignored by it.
type Record map[string]interface{}

// Frame is a batch of records in the row order the artifact expects.
type Frame []Record

// HouseFeatures is the typed view of the required features. A nil field means
// the key was absent or did not hold a value of the expected JSON type.
type HouseFeatures struct {
	AreaSqft  *float64 `json:"Area_sqft,omitempty"`
	Bedrooms  *float64 `json:"Bedrooms,omitempty"`
	Bathrooms *float64 `json:"Bathrooms,omitempty"`
	YearBuilt *float64 `json:"YearBuilt,omitempty"`
	Location  *string  `json:"Location,omitempty"`
}

// MissingColumnError reports a column the artifact needed but the input lacked.
type MissingColumnError struct {
	Key string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Key)
}

// DecodeRecord parses body as a single JSON object. The content type is not
// consulted.
func DecodeRecord(body []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = Record{}
	}
	return rec, nil
}

// Missing returns the keys of required that are absent from the record,
// preserving the order of required. A key holding JSON null counts as present.
func (r Record) Missing(required []string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := r[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// ParseRecord returns the typed view of r along with the required features it
// lacks, in the order of common.RequiredFeatures.
func ParseRecord(r Record) (HouseFeatures, []string) {
	return r.Features(), r.Missing(common.RequiredFeatures)
}

// Features returns the typed view of the record.
func (r Record) Features() HouseFeatures {
	return HouseFeatures{
		AreaSqft:  r.number(common.FeatureAreaSqft),
		Bedrooms:  r.number(common.FeatureBedrooms),
		Bathrooms: r.number(common.FeatureBathrooms),
		YearBuilt: r.number(common.FeatureYearBuilt),
		Location:  r.text(common.FeatureLocation),
	}
}

// CanonicalKey returns a stable encoding of the record; map keys are sorted
// by encoding/json.
func (r Record) CanonicalKey() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r Record) number(key string) *float64 {
	if v, ok := r[key].(float64); ok {
		return &v
	}
	return nil
}

func (r Record) text(key string) *string {
	if v, ok := r[key].(string); ok {
		return &v
	}
	return nil
}

// Column returns the values of one column across the frame. It fails with a
// MissingColumnError when any row lacks the key.
func (f Frame) Column(name string) ([]interface{}, error) {
	values := make([]interface{}, len(f))
	for i, row := range f {
		v, ok := row[name]
		if !ok {
			return nil, &MissingColumnError{Key: name}
		}
		values[i] = v
	}
	return values, nil
}
