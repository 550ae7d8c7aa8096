package thread

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func allowedCore(t *testing.T) int {
	var set unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &set))
	for i := 0; i < 1024; i++ {
		if set.IsSet(i) {
			return i
		}
	}
	t.Skip("no cpu in affinity set")
	return -1
}

func TestPinAllowedCore(t *testing.T) {
	core := allowedCore(t)
	errc := make(chan error, 1)
	go func() {
		unpin, err := Pin(core)
		if err == nil {
			unpin()
		}
		errc <- err
	}()
	assert.NoError(t, <-errc)
}

func TestUnpinRestoresAffinity(t *testing.T) {
	core := allowedCore(t)
	type result struct {
		before, pinned, after unix.CPUSet
		err                   error
	}
	done := make(chan result, 1)
	go func() {
		// keep the same thread after unpin so its mask can be read back
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var r result
		unix.SchedGetaffinity(0, &r.before)
		unpin, err := Pin(core)
		if err != nil {
			r.err = err
			done <- r
			return
		}
		unix.SchedGetaffinity(0, &r.pinned)
		unpin()
		unix.SchedGetaffinity(0, &r.after)
		done <- r
	}()

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, 1, r.pinned.Count())
	assert.True(t, r.pinned.IsSet(core))
	assert.Equal(t, r.before, r.after)
}

func TestPinOutOfRange(t *testing.T) {
	_, err := Pin(-1)
	assert.Error(t, err)
	_, err = Pin(1 << 16)
	assert.Error(t, err)
}
