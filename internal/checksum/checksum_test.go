package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	// sha256("")
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	assert.Equal(t, empty, Sum(nil))
	assert.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestETagRoundTrip(t *testing.T) {
	sum := Sum([]byte("project"))
	cases := []string{ETag(sum), "W/" + ETag(sum), sum, " " + ETag(sum) + " "}
	for _, tag := range cases {
		assert.Equal(t, sum, FromETag(tag), "FromETag(%q)", tag)
	}
}
