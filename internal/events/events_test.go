package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortRef(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := ShortRef("ORD")
		assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, ref)
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 1, "refs must not collide constantly")

	assert.Regexp(t, `^PAY-[0-9A-F]{8}$`, ShortRef("PAY"))
}

func TestPartitionKey(t *testing.T) {
	assert.Equal(t, []byte("ORD-1A2B3C4D"), PartitionKey("ORD-1A2B3C4D"))
}
