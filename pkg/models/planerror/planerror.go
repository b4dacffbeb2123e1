package planerror

import (
	"errors"
	"fmt"
)

const (
	SHARDPLAN_UNEXPECTED          = "SHPU"
	SHARDPLAN_AMBIGUOUS_COLUMN    = "SHPA"
	SHARDPLAN_MALFORMED_PREDICATE = "SHPM"
	SHARDPLAN_DUPLICATE_COLUMN    = "SHPD"
	SHARDPLAN_UNRESOLVED_ROUTE    = "SHPR"
	SHARDPLAN_ORDERING_VIOLATION  = "SHPO"
	SHARDPLAN_PARAMETER           = "SHPP"
	SHARDPLAN_COMPLEX_QUERY       = "SHPC"
	SHARDPLAN_CONFIG              = "SHPG"
)

var existingErrorCodeMap = map[string]string{
	SHARDPLAN_AMBIGUOUS_COLUMN:    "AmbiguousColumn",
	SHARDPLAN_MALFORMED_PREDICATE: "MalformedPredicate",
	SHARDPLAN_DUPLICATE_COLUMN:    "DuplicateColumn",
	SHARDPLAN_UNRESOLVED_ROUTE:    "no target database/table found",
	SHARDPLAN_ORDERING_VIOLATION:  "OrderingPreconditionViolation",
	SHARDPLAN_PARAMETER:           "ParameterNotBound",
	SHARDPLAN_COMPLEX_QUERY:       "ComplexQuery",
	SHARDPLAN_CONFIG:              "InvalidConfiguration",
}

func GetMessageByCode(errorCode string) string {
	rep, ok := existingErrorCodeMap[errorCode]
	if ok {
		return rep
	}
	return "Unexpected error"
}

var _ error = &PlanError{}

type PlanError struct {
	Err error

	ErrorCode string
}

func New(errorCode string, errorMsg string) *PlanError {
	return &PlanError{
		Err:       errors.New(errorMsg),
		ErrorCode: errorCode,
	}
}

func Newf(errorCode string, format string, a ...any) *PlanError {
	return &PlanError{
		Err:       fmt.Errorf(format, a...),
		ErrorCode: errorCode,
	}
}

// NewByCode builds an error whose description is the code's name.
func NewByCode(errorCode string) *PlanError {
	return New(errorCode, GetMessageByCode(errorCode))
}

func (er *PlanError) Error() string {
	return fmt.Sprintf("Code: %s. Name: %s. Description: %s.",
		er.ErrorCode, GetMessageByCode(er.ErrorCode), er.Err)
}

func (er *PlanError) Unwrap() error {
	return er.Err
}

// IsCode reports whether any error in err's chain is a PlanError with the given code.
func IsCode(err error, errorCode string) bool {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.ErrorCode == errorCode
	}
	return false
}
