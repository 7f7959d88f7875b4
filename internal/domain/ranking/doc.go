// Package ranking implements the preference-weighted scoring engine that
// re-ranks analyzed items with a user's per-feature weights, and the
// contract through which user decisions feed back into those weights.
package ranking
