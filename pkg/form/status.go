package form

// Status is the outcome of an answer operation.
type Status int

const (
	StatusOK Status = iota
	// StatusNotFound means the index path or identifier did not resolve.
	StatusNotFound
	// StatusTypeMismatch means a result or item had the wrong type for the group.
	StatusTypeMismatch
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusTypeMismatch:
		return "type_mismatch"
	default:
		return "unknown"
	}
}

// IndexPath addresses a row within a section.
type IndexPath struct {
	Section int `json:"section"`
	Row     int `json:"row"`
}

// SelectResult is returned by choice selection.
type SelectResult struct {
	// Selected is the new state of the target item.
	Selected bool `json:"selected"`
	// ReloadSection is set when sibling rows changed and must be redrawn.
	ReloadSection bool `json:"reloadSection"`
}
