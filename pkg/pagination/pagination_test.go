package pagination

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsNormalize(t *testing.T) {
	p := Params{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)

	p = Params{Page: 3, Limit: 500}.Normalize()
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)

	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, Params{Page: -2, Limit: 10}.Offset())
}

func TestNewPageLinks(t *testing.T) {
	self, err := url.Parse("http://foodgram.test/api/recipes?limit=2&page=2&author=abc")
	require.NoError(t, err)

	page := NewPage(self, Params{Page: 2, Limit: 2}, 5, []string{"c", "d"})
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://foodgram.test/api/recipes?author=abc&limit=2&page=3", *page.Next)
	assert.Equal(t, "http://foodgram.test/api/recipes?author=abc&limit=2", *page.Previous)
	assert.Equal(t, int64(5), page.Count)
}

func TestNewPageLastPageHasNoNext(t *testing.T) {
	self, err := url.Parse("http://foodgram.test/api/users")
	require.NoError(t, err)

	page := NewPage[int](self, Params{Page: 1, Limit: 6}, 6, nil)
	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
	assert.NotNil(t, page.Results)
	assert.Len(t, page.Results, 0)
}

func TestOffsetClampsHugePage(t *testing.T) {
	p := Params{Page: math.MaxInt, Limit: MaxLimit}
	assert.Equal(t, MaxPage, p.Normalize().Page)
	offset := p.Offset()
	assert.Positive(t, offset)
	assert.Equal(t, (MaxPage-1)*MaxLimit, offset)

	self, err := url.Parse("http://testserver/api/recipes?page=1")
	require.NoError(t, err)
	page := NewPage(self, p, math.MaxInt64, []int{})
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
}
