package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest_Defaults(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/reviews", nil), 10)

	assert.Equal(t, Params{Page: 1, PerPage: 10, Offset: 0}, p)
}

func TestFromRequest_Limit(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/reviews?page=3&limit=25", nil), 10)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 25, p.PerPage)
	assert.Equal(t, 50, p.Offset)
}

func TestFromRequest_PerPageAlias(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/orders?per_page=5", nil), 20)

	assert.Equal(t, 5, p.PerPage)
}

func TestFromRequest_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"negative page", "?page=-2&limit=5"},
		{"zero limit", "?page=1&limit=0"},
		{"limit above max", "?limit=101"},
		{"garbage", "?page=abc&limit=xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/products"+tt.query, nil), 12)
			assert.GreaterOrEqual(t, p.Page, 1)
			assert.True(t, p.PerPage == 12 || p.PerPage == 5)
			assert.Equal(t, (p.Page-1)*p.PerPage, p.Offset)
		})
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 21, NewParams(2, 10, 10))

	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)
}

func TestNewResult_LastPage(t *testing.T) {
	r := NewResult([]int{1}, 21, NewParams(3, 10, 10))

	assert.Equal(t, 3, r.TotalPages)
	assert.False(t, r.HasNext)
}

func TestNewResult_NilDataEncodesEmptyArray(t *testing.T) {
	r := NewResult[string](nil, 0, NewParams(1, 10, 10))

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
	assert.Equal(t, 0, r.TotalPages)
}
