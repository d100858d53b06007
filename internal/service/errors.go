package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/boutique/internal/authz"
	"github.com/Skotchmaster/boutique/internal/domain"
	"github.com/Skotchmaster/boutique/internal/repo"
)

var (
	ErrValidation  = errors.New("validation")         // 400
	ErrNotFound    = errors.New("not found")          // 404
	ErrConflict    = errors.New("conflict")           // 409, purchase cannot be fulfilled
	ErrIntegrity   = errors.New("integrity")          // 409, store constraint
	ErrTransaction = errors.New("transaction failed") // 500, rolled back

	ErrDuplicateName    = fmt.Errorf("%w: name already exists", ErrIntegrity)
	ErrCategoryNotEmpty = fmt.Errorf("%w: category still owns products", ErrIntegrity)
)

// ConflictError carries every conflict of a rejected purchase, in input order.
type ConflictError struct {
	Conflicts []domain.Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %d line(s) cannot be fulfilled", len(e.Conflicts))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// storeErr folds store and driver errors into the service taxonomy.
// Errors that already carry a service sentinel pass through.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrIntegrity),
		errors.Is(err, ErrTransaction), errors.Is(err, authz.ErrForbidden):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateName
	case errors.Is(err, repo.ErrCategoryNotEmpty), errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrCategoryNotEmpty
	default:
		return fmt.Errorf("%w: %v", ErrTransaction, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
