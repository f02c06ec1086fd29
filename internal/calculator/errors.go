package calculator

import (
	"fmt"

	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// LookupError reports a selection with no row in the constants table.
type LookupError struct {
	Datatype entities.Datatype
	Name     string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Datatype.Label(), e.Name)
}
