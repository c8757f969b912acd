package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated нет валидного пользователя
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound объект не найден или принадлежит другому пользователю
	ErrNotFound = errors.New("not found")
)

// ValidationError некорректный ввод, отклоняется до любых чтений/записей
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PartialFailureError часть независимых записей переупорядочивания прошла,
// часть нет. Прошедшие записи не откатываются.
type PartialFailureError struct {
	Updated int
	Failed  int
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("reorder partially applied: %d updated, %d failed", e.Updated, e.Failed)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// StorageError хранилище отклонило операцию
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		se *StorageError
		ve *ValidationError
	)
	if errors.As(err, &se) || errors.As(err, &ve) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
