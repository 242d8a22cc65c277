package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerAggregatesErrors(t *testing.T) {
	errBoom := errors.New("boom")
	runner := NewRunner()
	runner.Go(
		RunFunc(func(context.Context) error { return nil }),
		RunFunc(func(context.Context) error { return errBoom }),
	)
	err := runner.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Equal(t, []error{errBoom}, agg.Errors)
}

func TestRunnerIgnoresCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunnerWith(ctx)
	runner.Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return context.Canceled
	}))
	cancel()
	require.NoError(t, runner.Wait())
}

func TestRunWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stopCh := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCancel(ctx, func() { close(stopCh) }, func() error {
		<-stopCh
		return nil
	})
	require.Equal(t, context.Canceled, err)
}
