package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks what the loader does not: every extension has a class ID, a class name
// and at least one named property, and no class ID appears twice. All problems are returned joined.
func Validate(exts []Extension) error {
	if len(exts) == 0 {
		return errors.New("schema defines no extensions")
	}

	var errs []error
	seen := make(map[string]int, len(exts))
	for i := range exts {
		ext := &exts[i]
		if err := validate.Struct(ext); err != nil {
			errs = append(errs, fmt.Errorf("extension %d (%s): %w", i, ext.ClassName, err))
		}

		if ext.ClassID == "" {
			continue
		}
		id := strings.ToLower(ext.ClassID)
		if first, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("extension %d (%s): class ID %s already used by extension %d", i, ext.ClassName, ext.ClassID, first))
			continue
		}
		seen[id] = i
	}
	return errors.Join(errs...)
}
