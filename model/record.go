package model

// RawRecord is one loosely typed record from an export file: an unordered
// field bag of strings, numbers, booleans and nested structures. Only
// declared fields are read, everything else is ignored.
type RawRecord map[string]interface{}

// Snapshot holds the raw per-category record collections of one export.
// Category identity is carried by the field, not inferred from content.
type Snapshot struct {
	Weapons   []RawRecord `json:"weapons"`
	Resources []RawRecord `json:"resources"`
	Recipes   []RawRecord `json:"recipes"`
}

// Empty reports whether the snapshot contains no records at all.
func (s *Snapshot) Empty() bool {
	return len(s.Weapons) == 0 && len(s.Resources) == 0 && len(s.Recipes) == 0
}
