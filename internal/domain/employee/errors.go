package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("no employee found for the given device user id")
	ErrEmployeeInactive = errors.New("transactions cannot be created for an inactive employee")
)
