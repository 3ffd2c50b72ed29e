package service

import (
	"errors"
	"testing"

	"stilnovo/marketplace-service/internal/app/marketplace/repository"
	"stilnovo/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError_MapsRepositoryErrors(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"account", repository.ErrAccountNotFound, ErrAccountNotFound},
		{"listing", repository.ErrListingNotFound, ErrListingNotFound},
		{"transaction", repository.ErrTransactionNotFound, ErrTransactionNotFound},
		{"rating", repository.ErrRatingNotFound, ErrRatingNotFound},
		{"duplicate", repository.ErrDuplicateRating, ErrDuplicateRating},
		{"service error passes through", ErrSelfPurchase, ErrSelfPurchase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.in, "translate test"), tt.want)
		})
	}
}

func TestTranslateError_UnknownErrorCountsAsDbError(t *testing.T) {
	counter := metrics.DbErrors.WithLabelValues(metricsService, "translate unknown")
	before := testutil.ToFloat64(counter)

	err := translateError(errors.New("connection refused"), "translate unknown")

	assert.EqualError(t, err, "failed to translate unknown: connection refused")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestTranslateError_KnownErrorNotCounted(t *testing.T) {
	counter := metrics.DbErrors.WithLabelValues(metricsService, "translate known")
	before := testutil.ToFloat64(counter)

	_ = translateError(repository.ErrListingNotFound, "translate known")

	assert.Equal(t, before, testutil.ToFloat64(counter))
}
