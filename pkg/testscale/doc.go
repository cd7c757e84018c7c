// Package testscale предоставляет тестовое окружение для интеграционных тестов сервиса.
//
// Пакет позволяет в одну строку поднять сервер программно, с временной
// базой пользователей и, при необходимости, NATS контейнером для событий.
//
// Использование в тестах:
//
//	func TestIntegration(t *testing.T) {
//	    ctx := context.Background()
//
//	    env, err := testscale.Start(ctx, testscale.WithUser("alice", "secret"))
//	    require.NoError(t, err)
//	    defer env.Close(ctx)
//
//	    conn, err := env.NewClient(ctx, "alice", "secret")
//	    require.NoError(t, err)
//	    defer conn.Close()
//
//	    sum, err := conn.SumOfSquares([]int16{1, 2, 3, 4})
//	}
//
// С событиями в NATS (нужен Docker):
//
//	env, err := testscale.Start(ctx, testscale.WithEvents())
//	ev := <-env.Events()
package testscale
