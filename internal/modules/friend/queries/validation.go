package queries

import (
	"fmt"

	"github.com/google/uuid"
)

func validateID(name string, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("invalid %s - '%s'", name, id)
	}

	return nil
}
