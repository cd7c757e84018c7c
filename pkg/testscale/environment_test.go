package testscale_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/scale/pkg/protocol"
	"github.com/udisondev/scale/pkg/testscale"
)

func TestEnvironment_Start(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env, err := testscale.Start(ctx, testscale.WithUser("alice", "secret"))
	require.NoError(t, err, "Start должен успешно завершиться")
	require.NotEmpty(t, env.Addr, "Addr должен быть заполнен")
	require.FileExists(t, env.UsersFile)
	require.Empty(t, env.NATSUrl, "без WithEvents NATS не запускается")
	require.Nil(t, env.Events())

	usersFile := env.UsersFile
	require.NoError(t, env.Close(ctx), "Close должен успешно завершиться")
	require.NoFileExists(t, usersFile)
}

func TestEnvironment_Vectors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env, err := testscale.Start(ctx,
		testscale.WithUser("alice", "secret"),
		testscale.WithUser("bob", "with:colon"),
	)
	require.NoError(t, err)
	defer env.Close(ctx)

	alice, err := env.NewClient(ctx, "alice", "secret")
	require.NoError(t, err)
	results, err := alice.Process([][]int16{{1, 2, 3, 4}, {0}, {32767, 32767, 32767}})
	require.NoError(t, err)
	require.Equal(t, []int16{30, 0, 32767}, results)
	alice.Close()

	bob, err := env.NewClient(ctx, "bob", "with:colon")
	require.NoError(t, err)
	defer bob.Close()
	sum, err := bob.SumOfSquares([]int16{42})
	require.NoError(t, err)
	require.Equal(t, int16(1764), sum)
}

func TestEnvironment_RejectsUnknown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env, err := testscale.Start(ctx, testscale.WithUser("alice", "secret"))
	require.NoError(t, err)
	defer env.Close(ctx)

	_, err = env.NewClient(ctx, "eve", "secret")
	require.ErrorIs(t, err, protocol.ErrUnknownLogin)

	_, err = env.NewClient(ctx, "alice", "guess")
	require.ErrorIs(t, err, protocol.ErrAuthFailed)
}

func TestEnvironment_Events(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// 1. Окружение с NATS
	env, err := testscale.Start(ctx, testscale.WithUser("alice", "secret"), testscale.WithEvents())
	require.NoError(t, err)
	defer env.Close(ctx)
	require.NotEmpty(t, env.NATSUrl)

	started, err := env.WaitEvent(ctx, "server started successfully")
	require.NoError(t, err)
	require.False(t, started.Critical)

	// 2. Неудачная аутентификация
	_, err = env.NewClient(ctx, "alice", "guess")
	require.Error(t, err)

	failed, err := env.WaitEvent(ctx, "authentication failed")
	require.NoError(t, err)
	require.Equal(t, "alice", failed.Attrs["login"])
	require.NotEmpty(t, failed.Attrs["remote"])

	// 3. Успешная сессия
	conn, err := env.NewClient(ctx, "alice", "secret")
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.SumOfSquares([]int16{3, 4})
	require.NoError(t, err)

	done, err := env.WaitEvent(ctx, "all vectors processed")
	require.NoError(t, err)
	require.Equal(t, "1", done.Attrs["vectors"])
}
