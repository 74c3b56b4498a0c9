package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/matchbot/internal/errors"
	"github.com/oggyb/matchbot/internal/utils/pagination"
)

func TestMap(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("viewer 7: %w", svcErr.ErrProfileNotFound), codes.NotFound},
		{svcErr.ErrThreadNotFound, codes.NotFound},
		{gorm.ErrRecordNotFound, codes.NotFound},
		{svcErr.ErrProfileIncomplete, codes.FailedPrecondition},
		{svcErr.ErrNotParticipant, codes.PermissionDenied},
		{svcErr.ErrBlocked, codes.PermissionDenied},
		{svcErr.ErrSelfDecision, codes.InvalidArgument},
		{svcErr.ErrMessageTooLong, codes.InvalidArgument},
		{pagination.ErrInvalidToken, codes.InvalidArgument},
		{svcErr.ErrDuplicateMatch, codes.AlreadyExists},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{errors.New("boom"), codes.Internal},
	}

	for _, tc := range cases {
		got := status.Code(svcErr.Map(tc.err))
		assert.Equal(t, tc.want, got, tc.err.Error())
	}
}

func TestMap_PassesThroughStatusErrors(t *testing.T) {
	in := svcErr.InvalidArgument("bad id")
	assert.Equal(t, in, svcErr.Map(in))
	assert.NoError(t, svcErr.Map(nil))
}

func TestDeliveryFailureUnwraps(t *testing.T) {
	cause := errors.New("chat not found")
	var err error = &svcErr.DeliveryFailure{RecipientID: 4, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "profile 4")
}
