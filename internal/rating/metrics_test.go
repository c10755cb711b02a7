package rating

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, h.Write(m))
	return m.GetHistogram().GetSampleCount()
}

func TestRecompute_RecordsOutcome(t *testing.T) {
	reviews := new(mockReviews)
	products := new(mockProducts)
	ctx := context.Background()

	reviews.On("ListRatingsByProduct", ctx, "ok-product").Return([]int{4}, nil)
	products.On("UpdateRatingStats", ctx, "ok-product", Stats{AverageRating: 4, TotalReviews: 1}).Return(nil)
	reviews.On("ListRatingsByProduct", ctx, "bad-product").Return(nil, errors.New("timeout"))

	okBefore := counterValue(t, recomputeTotal.WithLabelValues("ok"))
	errBefore := counterValue(t, recomputeTotal.WithLabelValues("error"))
	samplesBefore := histogramCount(t, recomputeDuration)

	agg := NewAggregator(reviews, products, testLogger())
	_, err := agg.Recompute(ctx, "ok-product")
	require.NoError(t, err)
	_, err = agg.Recompute(ctx, "bad-product")
	require.Error(t, err)

	assert.Equal(t, okBefore+1, counterValue(t, recomputeTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, counterValue(t, recomputeTotal.WithLabelValues("error")))
	assert.Equal(t, samplesBefore+2, histogramCount(t, recomputeDuration))
}
