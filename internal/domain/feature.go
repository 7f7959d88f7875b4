package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FeatureTypeCategory is the feature type used for analysis categories.
const FeatureTypeCategory = "category"

// featureKeySeparator joins type and value into a feature key.
const featureKeySeparator = ":"

// Feature is a normalized (key, type, value) triple. Two requests naming the
// same logical feature with different casing or spacing normalize to the
// same Feature.
type Feature struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// NormalizeFeature canonicalizes a feature type and value: both are
// lower-cased, trimmed and have internal whitespace runs collapsed to a
// single space. The key is "type:value".
func NormalizeFeature(featureType, value string) (Feature, error) {
	t := normalizePart(featureType)
	v := normalizePart(value)
	if t == "" || v == "" {
		return Feature{}, fmt.Errorf("%w: type %q value %q", ErrInvalidFeature, featureType, value)
	}
	if strings.Contains(t, featureKeySeparator) {
		return Feature{}, fmt.Errorf("%w: type %q contains %q", ErrInvalidFeature, featureType, featureKeySeparator)
	}
	return Feature{Key: t + featureKeySeparator + v, Type: t, Value: v}, nil
}

// ParseFeatureKey normalizes an already-joined "type:value" key.
func ParseFeatureKey(key string) (Feature, error) {
	t, v, ok := strings.Cut(key, featureKeySeparator)
	if !ok {
		return Feature{}, fmt.Errorf("%w: key %q has no type", ErrInvalidFeature, key)
	}
	return NormalizeFeature(t, v)
}

func normalizePart(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// FeatureWeight is a user's learned preference strength for one feature.
// A muted weight is excluded from scoring regardless of its stored value.
type FeatureWeight struct {
	UserID uuid.UUID `json:"user_id"`
	Feature
	Weight    float64   `json:"weight"`
	Muted     bool      `json:"muted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
