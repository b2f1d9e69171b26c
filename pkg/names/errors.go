package names

import (
	"fmt"
	"strings"
)

// ValidationError lists explicitly requested country codes the dataset does
// not recognize. It is reported to the caller but never stops collection.
type ValidationError struct {
	Codes []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unrecognized country codes: %s", strings.Join(e.Codes, ", "))
}
