package sqlite

import (
	"errors"
	"fmt"
	"strings"

	driver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// classify wraps SQLite constraint failures (CHECK, UNIQUE, NOT NULL,
// FOREIGN KEY) in types.ErrConstraintViolation. Other errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *driver.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %w", types.ErrConstraintViolation, err)
	}
	if strings.Contains(err.Error(), "constraint failed") {
		return fmt.Errorf("%w: %w", types.ErrConstraintViolation, err)
	}
	return err
}
