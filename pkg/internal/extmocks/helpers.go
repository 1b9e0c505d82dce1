package extmocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// AnyContext matches any context.Context argument.
var AnyContext = mock.MatchedBy(func(context.Context) bool {
	// MatchedBy only calls this for arguments assignable to context.Context
	return true
})
