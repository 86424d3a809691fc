package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sum(nil))
}

func TestETag(t *testing.T) {
	a := ETag([]byte(`{"hubs":[]}`))
	assert.Len(t, a, 34)
	assert.Equal(t, a, ETag([]byte(`{"hubs":[]}`)))
	assert.NotEqual(t, a, ETag([]byte(`{"hubs":[{}]}`)))
}
