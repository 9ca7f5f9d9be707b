package avmconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	c := NewEmulatorConfig()
	assert.Equal(t, uint64(0), c.ChainID())
	assert.Equal(t, DefaultCallStackCeiling, c.CallStackCeiling())
	assert.False(t, c.HasFeature("anything"))
}

func TestWithMethodsDoNotMutateReceiver(t *testing.T) {
	base := NewEmulatorConfig()
	derived := base.WithChainID(42).WithStartingBlockNum(100).WithStartingTimestamp(1700000000).WithCallStackCeiling(10)

	assert.Equal(t, uint64(0), base.ChainID())
	assert.Equal(t, uint64(42), derived.ChainID())
	assert.Equal(t, uint64(100), derived.StartingBlockNum())
	assert.Equal(t, uint64(1700000000), derived.StartingTimestamp())
	assert.Equal(t, 10, derived.CallStackCeiling())
}

func TestWithFeatureIsolatesMaps(t *testing.T) {
	base := NewEmulatorConfig()
	withFoo := base.WithFeature("foo")
	withBar := withFoo.WithFeature("bar")

	assert.False(t, base.HasFeature("foo"))
	assert.True(t, withFoo.HasFeature("foo"))
	assert.False(t, withFoo.HasFeature("bar"))
	assert.True(t, withBar.HasFeature("foo"))
	assert.True(t, withBar.HasFeature("bar"))
}
