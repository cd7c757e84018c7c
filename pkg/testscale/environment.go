package testscale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/udisondev/scale/internal/broker"
	"github.com/udisondev/scale/pkg/client"
	"github.com/udisondev/scale/pkg/config"
	"github.com/udisondev/scale/pkg/journal"
	"github.com/udisondev/scale/pkg/server"
)

// EventsSubject префикс subject событий в тестовом окружении.
const EventsSubject = "scale.test"

// Environment тестовое окружение: сервер и, опционально, NATS.
type Environment struct {
	// Addr адрес сервера (host:port).
	Addr string
	// UsersFile путь к временной базе пользователей.
	UsersFile string
	// NATSUrl URL NATS, пустой без WithEvents.
	NATSUrl string

	dir       string
	nats      *natsContainer
	broker    *broker.Broker
	sub       *broker.Subscriber
	events    chan broker.Event
	cancelCtx context.CancelFunc
	serverErr chan error
}

// Option опция конфигурации окружения.
type Option func(*options)

type options struct {
	users          map[string]string
	maxConnections int
	maxVectorSize  uint32
	authTimeout    time.Duration
	ioTimeout      time.Duration
	events         bool
	eventsBuffer   int
}

func defaultOptions() *options {
	return &options{
		users:          map[string]string{},
		maxConnections: 1,
		authTimeout:    10 * time.Second,
		ioTimeout:      30 * time.Second,
		eventsBuffer:   256,
	}
}

// WithUser добавляет пользователя в базу.
func WithUser(login, secret string) Option {
	return func(o *options) { o.users[login] = secret }
}

// WithMaxConnections устанавливает количество одновременно обслуживаемых клиентов.
func WithMaxConnections(n int) Option {
	return func(o *options) { o.maxConnections = n }
}

// WithMaxVectorSize ограничивает размер вектора.
func WithMaxVectorSize(n uint32) Option {
	return func(o *options) { o.maxVectorSize = n }
}

// WithAuthTimeout устанавливает таймаут аутентификации.
func WithAuthTimeout(d time.Duration) Option {
	return func(o *options) { o.authTimeout = d }
}

// WithIOTimeout устанавливает таймаут шага обмена векторами.
func WithIOTimeout(d time.Duration) Option {
	return func(o *options) { o.ioTimeout = d }
}

// WithEvents поднимает NATS контейнер и включает публикацию событий.
func WithEvents() Option {
	return func(o *options) { o.events = true }
}

// Start запускает тестовое окружение.
func Start(ctx context.Context, opts ...Option) (_ *Environment, err error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	env := &Environment{}
	defer func() {
		if err != nil {
			_ = env.Close(ctx)
		}
	}()

	// 1. Временная база пользователей
	env.dir, err = os.MkdirTemp("", "testscale-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	env.UsersFile = filepath.Join(env.dir, "scale.conf")
	if err := os.WriteFile(env.UsersFile, []byte(usersFile(o.users)), 0o600); err != nil {
		return nil, fmt.Errorf("write users file: %w", err)
	}

	// 2. TCP listener на случайном порту
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("create listener: %w", err)
	}
	env.Addr = lis.Addr().String()

	// 3. Конфигурация
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = lis.Addr().(*net.TCPAddr).Port
	cfg.Users.File = env.UsersFile
	cfg.Limits.MaxConnections = o.maxConnections
	cfg.Limits.MaxVectorSize = o.maxVectorSize
	cfg.Limits.AuthTimeout = o.authTimeout
	cfg.Limits.IOTimeout = o.ioTimeout
	cfg.Ready = make(chan struct{})

	// 4. NATS и подписка до старта сервера, чтобы не пропустить события запуска
	if o.events {
		if err := env.startEvents(ctx, o.eventsBuffer); err != nil {
			_ = lis.Close()
			return nil, err
		}
		cfg.Events.Enabled = true
		cfg.Events.URLs = []string{env.NATSUrl}
		cfg.Events.Subject = EventsSubject
		cfg.Events.MaxReconnects = 5
	}

	// 5. Сервер в горутине
	serverCtx, cancelCtx := context.WithCancel(context.Background())
	env.cancelCtx = cancelCtx
	env.serverErr = make(chan error, 1)
	go func() {
		env.serverErr <- server.Serve(serverCtx, cfg, lis, journal.Slog{})
	}()

	// 6. Ждём готовности
	select {
	case <-cfg.Ready:
	case err := <-env.serverErr:
		env.serverErr = nil
		return nil, fmt.Errorf("server failed to start: %w", err)
	case <-time.After(30 * time.Second):
		return nil, errors.New("server start timeout")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return env, nil
}

func (e *Environment) startEvents(ctx context.Context, buffer int) error {
	var err error
	e.nats, err = startNATS(ctx)
	if err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}
	e.NATSUrl = e.nats.url

	e.broker, err = broker.New(broker.Config{
		URLs:          []string{e.NATSUrl},
		ReconnectWait: time.Second,
		MaxReconnects: 5,
	})
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	e.events = make(chan broker.Event, buffer)
	e.sub, err = broker.NewSubscriber(e.broker, EventsSubject, func(ev broker.Event) {
		select {
		case e.events <- ev:
		default:
			slog.Warn("testscale: events buffer full, event dropped", "message", ev.Message)
		}
	})
	if err != nil {
		return err
	}

	// Подписка должна дойти до сервера NATS раньше первой публикации
	if err := e.broker.Flush(); err != nil {
		return fmt.Errorf("flush subscription: %w", err)
	}
	return nil
}

// Events возвращает канал событий сервера. nil без WithEvents.
func (e *Environment) Events() <-chan broker.Event {
	return e.events
}

// WaitEvent ждёт событие с указанным сообщением.
// Остальные события пропускаются.
func (e *Environment) WaitEvent(ctx context.Context, msg string) (broker.Event, error) {
	if e.events == nil {
		return broker.Event{}, errors.New("events are not enabled")
	}
	for {
		select {
		case ev := <-e.events:
			if ev.Message == msg {
				return ev, nil
			}
		case <-ctx.Done():
			return broker.Event{}, fmt.Errorf("wait event %q: %w", msg, ctx.Err())
		}
	}
}

// NewClient подключается к серверу и проходит аутентификацию.
func (e *Environment) NewClient(ctx context.Context, login, secret string) (*client.Conn, error) {
	timeout := 10 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}

	conn, err := client.Dial(e.Addr, client.WithDialTimeout(timeout), client.WithIOTimeout(timeout))
	if err != nil {
		return nil, err
	}
	if err := conn.Authenticate(login, secret); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("authenticate %s: %w", login, err)
	}
	return conn, nil
}

// Close останавливает окружение и удаляет временные файлы.
func (e *Environment) Close(ctx context.Context) error {
	// Останавливаем сервер
	if e.cancelCtx != nil {
		e.cancelCtx()
		e.cancelCtx = nil
	}

	var errs []error

	// Ждём завершения сервера
	if e.serverErr != nil {
		select {
		case err := <-e.serverErr:
			if err != nil {
				errs = append(errs, fmt.Errorf("server: %w", err))
			}
		case <-time.After(5 * time.Second):
			errs = append(errs, errors.New("server stop timeout"))
		}
		e.serverErr = nil
	}

	if e.sub != nil {
		if err := e.sub.Unsubscribe(); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribe: %w", err))
		}
		e.sub = nil
	}
	if e.broker != nil {
		if err := e.broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close broker: %w", err))
		}
		e.broker = nil
	}
	if e.nats != nil {
		if err := e.nats.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("terminate NATS: %w", err))
		}
		e.nats = nil
	}
	if e.dir != "" {
		if err := os.RemoveAll(e.dir); err != nil {
			errs = append(errs, fmt.Errorf("remove temp dir: %w", err))
		}
		e.dir = ""
	}

	return errors.Join(errs...)
}

// usersFile формирует содержимое базы пользователей в стабильном порядке.
func usersFile(users map[string]string) string {
	logins := make([]string, 0, len(users))
	for login := range users {
		logins = append(logins, login)
	}
	sort.Strings(logins)

	var b strings.Builder
	for _, login := range logins {
		b.WriteString(login)
		b.WriteByte(':')
		b.WriteString(users[login])
		b.WriteByte('\n')
	}
	return b.String()
}
