package model

// Tag is a named label attached to companies. Name is case-sensitive.
type Tag struct {
	Name string `json:"name"`
}

// TagFromRecord coerces a result row into a Tag.
func TagFromRecord(rec map[string]interface{}) (Tag, error) {
	name, err := requiredString(rec, "Name")
	if err != nil {
		return Tag{}, err
	}
	return Tag{Name: name}, nil
}
