package calculator

import "github.com/LeonardoBeccarini/plantcare/internal/model/entities"

// FindConstant returns the first row of the given datatype named name.
// When a name is repeated within a datatype the earliest row wins.
func FindConstant(constants []entities.ConstantRecord, datatype entities.Datatype, name string) (entities.ConstantRecord, error) {
	for _, c := range constants {
		if c.Datatype == datatype && c.Name == name {
			return c, nil
		}
	}
	return entities.ConstantRecord{}, &LookupError{Datatype: datatype, Name: name}
}

// Names lists the selectable names of a datatype in table order, without repeats.
func Names(constants []entities.ConstantRecord, datatype entities.Datatype) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, c := range constants {
		if c.Datatype != datatype {
			continue
		}
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c.Name)
	}
	return out
}
