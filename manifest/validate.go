package manifest

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is a package-level singleton; constructing a validator per call is
// expensive.
var validate = validator.New()

// Validate checks the manifest's structural constraints (required fields,
// entry convention enum, non-empty export list).
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("manifest validation failed: %w", err)
	}
	return nil
}
