package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peakpt/workout-app/internal/domain"
)

func TestValidateDate(t *testing.T) {
	for _, valid := range []string{"2024-09-09", "2024-02-29", "1999-12-31"} {
		assert.NoError(t, domain.ValidateDate(valid), valid)
	}

	for _, invalid := range []string{"2024-13-40", "9/9/2024", "2023-02-29", "2024-9-9", "", "2024-09-09T00:00:00Z", " 2024-09-09"} {
		err := domain.ValidateDate(invalid)
		require.Error(t, err, invalid)
		assert.ErrorIs(t, err, domain.ErrInvalidDate, invalid)
	}
}
