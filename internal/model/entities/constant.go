package entities

// Datatype tags which selector a constant row feeds.
type Datatype string

const (
	DatatypePot     Datatype = "pot"
	DatatypeSpecies Datatype = "species"
	DatatypeSeason  Datatype = "season"
)

// Datatypes lists the selectors in the order the calculator resolves them.
var Datatypes = []Datatype{DatatypePot, DatatypeSpecies, DatatypeSeason}

// Label is the user-facing name of the selector, e.g. "pot type".
func (d Datatype) Label() string {
	switch d {
	case DatatypePot:
		return "pot type"
	case DatatypeSpecies:
		return "plant species"
	case DatatypeSeason:
		return "season"
	default:
		return string(d)
	}
}

// ConstantRecord is one row of the constants table.
// Meaning of the two data fields depends on the datatype:
// pot -> (water factor, unused), season -> (water factor, fertilizer ratio).
type ConstantRecord struct {
	Datatype   Datatype `json:"datatype"`
	Name       string   `json:"name"` // unique within its datatype
	DataField1 float64  `json:"datafield_1"`
	DataField2 float64  `json:"datafield_2"`
}
