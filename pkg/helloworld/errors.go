package helloworld

import "errors"

// Static error variables for err113 compliance
var (
	errOutputNil                 = errors.New("output is nil")
	errTooFewFields              = errors.New("HelloWorld token needs a message and a signature field")
	errSignatureNotLinked        = errors.New("token signature is not linked to the locking key")
	errValidQueryMustBeProvided  = errors.New("a valid query must be provided")
	errLookupServiceNotSupported = errors.New("lookup service not supported")
	errQueryInvalid              = errors.New("query must be a string or an object")
	errQueryMessageEmpty         = errors.New("query message must be a non-empty string if provided")
	errQueryLimitInvalid         = errors.New("query.limit must be a non-negative number if provided")
	errQuerySkipInvalid          = errors.New("query.skip must be a non-negative number if provided")
	errQuerySortOrderInvalid     = errors.New("query.sortOrder must be 'asc' or 'desc' if provided")
	errStorageNil                = errors.New("lookup service storage cannot be nil")
)
