package stream_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dudk/stream"
)

var errTest = errors.New("test error")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRegister(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := stream.NewRegistry()
		var acquired, released int
		token, err := r.Register(
			func() error { acquired++; return nil },
			func() error { released++; return nil },
		)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, 1, acquired)
		assert.Equal(t, 0, released)
		assert.Equal(t, 1, r.Pending())
	})
	t.Run("acquire error", func(t *testing.T) {
		r := stream.NewRegistry()
		var released int
		token, err := r.Register(
			func() error { return errTest },
			func() error { released++; return nil },
		)
		var acqErr *stream.AcquisitionError
		assert.ErrorAs(t, err, &acqErr)
		assert.ErrorIs(t, err, errTest)
		assert.Empty(t, token)
		assert.Equal(t, 0, r.Pending())
		assert.NoError(t, r.Teardown())
		assert.Equal(t, 0, released)
	})
	t.Run("after teardown", func(t *testing.T) {
		r := stream.NewRegistry()
		require.NoError(t, r.Teardown())
		var acquired int
		_, err := r.Register(
			func() error { acquired++; return nil },
			func() error { return nil },
		)
		assert.ErrorIs(t, err, stream.ErrRegistryClosed)
		assert.Equal(t, 0, acquired)
	})
}

func TestAcquire(t *testing.T) {
	r := stream.NewRegistry()
	var closed []string
	v, token, err := stream.Acquire(r,
		func() (string, error) { return "file", nil },
		func(v string) error { closed = append(closed, v); return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "file", v)
	assert.NoError(t, r.Release(token))
	assert.Equal(t, []string{"file"}, closed)

	_, _, err = stream.Acquire(r,
		func() (string, error) { return "", errTest },
		func(v string) error { closed = append(closed, v); return nil },
	)
	assert.ErrorIs(t, err, errTest)
	assert.Equal(t, []string{"file"}, closed)
}

func TestRelease(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		r := stream.NewRegistry()
		var released int
		token, err := r.Register(nil, func() error { released++; return nil })
		require.NoError(t, err)

		assert.NoError(t, r.Release(token))
		assert.NoError(t, r.Release(token))
		assert.Equal(t, 1, released)
		assert.Equal(t, 0, r.Pending())
		assert.Equal(t, 1, r.Released())

		assert.NoError(t, r.Teardown())
		assert.Equal(t, 1, released)
	})
	t.Run("unknown token", func(t *testing.T) {
		r := stream.NewRegistry()
		assert.NoError(t, r.Release("unknown"))
	})
	t.Run("release error", func(t *testing.T) {
		r := stream.NewRegistry()
		var released int
		token, err := r.Register(nil, func() error { released++; return errTest })
		require.NoError(t, err)

		err = r.Release(token)
		var finErr *stream.FinalizationError
		assert.ErrorAs(t, err, &finErr)
		assert.ErrorIs(t, err, errTest)
		// entry is removed even if release failed
		assert.NoError(t, r.Release(token))
		assert.NoError(t, r.Teardown())
		assert.Equal(t, 1, released)
	})
	t.Run("release panic", func(t *testing.T) {
		r := stream.NewRegistry()
		token, err := r.Register(nil, func() error { panic("boom") })
		require.NoError(t, err)

		err = r.Release(token)
		var finErr *stream.FinalizationError
		assert.ErrorAs(t, err, &finErr)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestTeardown(t *testing.T) {
	t.Run("reverse order", func(t *testing.T) {
		r := stream.NewRegistry()
		var order []int
		tokens := make([]stream.Token, 0, 5)
		for i := 0; i < 5; i++ {
			i := i
			token, err := r.Register(nil, func() error { order = append(order, i); return nil })
			require.NoError(t, err)
			tokens = append(tokens, token)
		}
		require.NoError(t, r.Release(tokens[2]))

		assert.NoError(t, r.Teardown())
		assert.Equal(t, []int{2, 4, 3, 1, 0}, order)
		assert.Equal(t, 0, r.Pending())
		assert.Equal(t, 5, r.Released())

		// only the first call has effect
		assert.NoError(t, r.Teardown())
		assert.Equal(t, []int{2, 4, 3, 1, 0}, order)
	})
	t.Run("aggregate errors", func(t *testing.T) {
		r := stream.NewRegistry()
		errFirst, errSecond := errors.New("first"), errors.New("second")
		var released int
		_, err := r.Register(nil, func() error { released++; return errFirst })
		require.NoError(t, err)
		_, err = r.Register(nil, func() error { released++; return nil })
		require.NoError(t, err)
		_, err = r.Register(nil, func() error { released++; return errSecond })
		require.NoError(t, err)

		err = r.Teardown()
		var finErr *stream.FinalizationError
		require.ErrorAs(t, err, &finErr)
		assert.Len(t, finErr.Errs, 2)
		assert.ErrorIs(t, err, errFirst)
		assert.ErrorIs(t, err, errSecond)
		assert.Equal(t, 3, released)
	})
}

func TestHandle(t *testing.T) {
	r := stream.NewRegistry()
	var acquired, released int
	h := stream.NewHandle(r,
		func() (int, error) { acquired++; return 42, nil },
		func(int) error { released++; return nil },
	)
	assert.False(t, h.Acquired())
	assert.Equal(t, 0, r.Pending())

	v, err := h.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	_, err = h.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, acquired)
	assert.True(t, h.Acquired())
	assert.Equal(t, 1, r.Pending())

	assert.NoError(t, h.Release())
	assert.NoError(t, h.Release())
	assert.Equal(t, 1, released)
	assert.False(t, h.Acquired())
	assert.Equal(t, 0, r.Pending())

	_, err = h.Get()
	assert.ErrorIs(t, err, stream.ErrHandleReleased)
	assert.Equal(t, 1, acquired)

	// released before acquired: nothing is registered
	h = stream.NewHandle(r,
		func() (int, error) { acquired++; return 0, nil },
		func(int) error { released++; return nil },
	)
	assert.NoError(t, h.Release())
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, released)
}
