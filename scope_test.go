package stream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/stream"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	t.Run("leftover released", func(t *testing.T) {
		var released int
		err := stream.Run(ctx, func(_ context.Context, r *stream.Registry) error {
			_, err := r.Register(nil, func() error { released++; return nil })
			return err
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, released)
	})
	t.Run("body error", func(t *testing.T) {
		var released int
		err := stream.Run(ctx, func(_ context.Context, r *stream.Registry) error {
			if _, err := r.Register(nil, func() error { released++; return nil }); err != nil {
				return err
			}
			return errTest
		})
		assert.Equal(t, errTest, err)
		assert.Equal(t, 1, released)
	})
	t.Run("teardown error", func(t *testing.T) {
		err := stream.Run(ctx, func(_ context.Context, r *stream.Registry) error {
			_, err := r.Register(nil, func() error { return errTest })
			return err
		})
		var finErr *stream.FinalizationError
		assert.ErrorAs(t, err, &finErr)
		assert.ErrorIs(t, err, errTest)
	})
	t.Run("body and teardown errors", func(t *testing.T) {
		errBody := errors.New("body")
		err := stream.Run(ctx, func(_ context.Context, r *stream.Registry) error {
			if _, err := r.Register(nil, func() error { return errTest }); err != nil {
				return err
			}
			return errBody
		})
		var runErr *stream.RunError
		require.ErrorAs(t, err, &runErr)
		assert.Equal(t, errBody, runErr.Err)
		assert.ErrorIs(t, err, errTest)
		assert.ErrorIs(t, err, errBody)
	})
	t.Run("panic", func(t *testing.T) {
		var released int
		assert.PanicsWithValue(t, "boom", func() {
			_ = stream.Run(ctx, func(_ context.Context, r *stream.Registry) error {
				if _, err := r.Register(nil, func() error { released++; return nil }); err != nil {
					return err
				}
				panic("boom")
			})
		})
		assert.Equal(t, 1, released)
	})
	t.Run("self released", func(t *testing.T) {
		var released int
		err := stream.Run(ctx, func(_ context.Context, r *stream.Registry) error {
			token, err := r.Register(nil, func() error { released++; return nil })
			if err != nil {
				return err
			}
			if err := r.Release(token); err != nil {
				return err
			}
			assert.Equal(t, 0, r.Pending())
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, released)
	})
}
