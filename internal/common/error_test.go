package common

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsIgnorableTabError(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		ignorable bool
	}{
		{
			name:      "Scenario 1: Unauthorized tab",
			err:       &APIError{StatusCode: 401, Message: "unauthorized"},
			ignorable: true,
		},
		{
			name:      "Scenario 2: Forbidden tab",
			err:       &APIError{StatusCode: 403},
			ignorable: true,
		},
		{
			name:      "Scenario 3: Missing tab",
			err:       &APIError{StatusCode: 404},
			ignorable: true,
		},
		{
			name:      "Scenario 4: Unexpected reply without status",
			err:       &APIError{StatusCode: 0, Message: "unexpected response"},
			ignorable: true,
		},
		{
			name:      "Scenario 5: Legacy message without structured code",
			err:       &APIError{StatusCode: 500, Message: "tab is hidden or disabled for this course"},
			ignorable: true,
		},
		{
			name:      "Scenario 6: Legacy base content message",
			err:       &APIError{StatusCode: 422, Message: "failed to save base content"},
			ignorable: true,
		},
		{
			name:      "Scenario 7: Server error stays fatal",
			err:       &APIError{StatusCode: 500, Message: "internal error"},
			ignorable: false,
		},
		{
			name:      "Scenario 8: Wrapped api error is unwrapped",
			err:       fmt.Errorf("cannot fetch tab: %w", &APIError{StatusCode: 404}),
			ignorable: true,
		},
		{
			name:      "Scenario 9: Plain error is never ignorable",
			err:       fmt.Errorf("connection refused"),
			ignorable: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.ignorable, IsIgnorableTabError(tc.err))
		})
	}
}
