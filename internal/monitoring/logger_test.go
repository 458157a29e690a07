package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("[windower] scenes=%d", 3)
	assert.Equal(t, []string{"[windower] scenes=3"}, got)

	SetLogger(nil)
	Logf("muted")
	assert.Len(t, got, 1, "nil logger must be a no-op")
}

func TestDebugf_RespectsVerbose(t *testing.T) {
	original := Logf
	defer func() {
		Logf = original
		SetVerbose(false)
	}()

	calls := 0
	SetLogger(func(string, ...interface{}) { calls++ })

	SetVerbose(false)
	Debugf("hidden %d", 1)
	assert.Equal(t, 0, calls)
	assert.False(t, Verbose())

	SetVerbose(true)
	Debugf("shown %d", 2)
	assert.Equal(t, 1, calls)
	assert.True(t, Verbose())
}
