package reports

import (
	"time"
)

// rangeArgs returns the template switches and named parameters for an optional [from, to) range.
func rangeArgs(from *time.Time, to *time.Time) (map[string]interface{}, map[string]interface{}) {
	tmpl := map[string]interface{}{
		"from": from != nil,
		"to":   to != nil,
	}
	params := map[string]interface{}{}
	if from != nil {
		params["from"] = from.UTC()
	}
	if to != nil {
		params["to"] = to.UTC()
	}
	return tmpl, params
}

// namedArgs wraps params for db.Raw. An empty map must not be passed, gorm would
// bind it as a positional value.
func namedArgs(params map[string]interface{}) []interface{} {
	if len(params) == 0 {
		return nil
	}
	return []interface{}{params}
}

const variantNameSql = `CASE WHEN pv.name IS NOT NULL AND pv.name <> '' THEN CONCAT(p.name, ' · ', pv.name) ELSE p.name END`
