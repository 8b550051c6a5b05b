package xhttpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethod(t *testing.T) {
	for _, s := range []string{"GET", "HEAD", "POST", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"} {
		m, ok := ParseMethod(s)
		assert.True(t, ok, s)
		assert.Equal(t, s, m.String())
	}
	for _, s := range []string{"get", "Get", "post", "Post", "", "FETCH", " GET"} {
		_, ok := ParseMethod(s)
		assert.False(t, ok, "%q", s)
	}
	assert.True(t, MethodGet.servable())
	assert.True(t, MethodHead.servable())
	assert.False(t, MethodPost.servable())
}
