package hashgate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestComputeFingerprint(t *testing.T) {
	fp := ComputeFingerprint("Dagens: Pasta 119 kr")
	assert.Regexp(t, hexPattern, string(fp))
	assert.Equal(t, fp, ComputeFingerprint("Dagens: Pasta 119 kr"))

	t.Run("trim invariant", func(t *testing.T) {
		assert.Equal(t, ComputeFingerprint("x"), ComputeFingerprint("  x\n"))
		assert.Equal(t, ComputeFingerprint("abc"), ComputeFingerprint("\t abc \r\n"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t,
			entity.Fingerprint("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"),
			ComputeFingerprint("   "))
	})

	t.Run("inner whitespace matters", func(t *testing.T) {
		assert.NotEqual(t, ComputeFingerprint("a b"), ComputeFingerprint("a  b"))
	})
}

func TestHasChanged(t *testing.T) {
	prev := ComputeFingerprint("A")

	assert.True(t, HasChanged("A", nil), "first run always counts as changed")
	assert.False(t, HasChanged("A", &prev))
	assert.False(t, HasChanged(" A ", &prev))
	assert.True(t, HasChanged("B", &prev))
}
