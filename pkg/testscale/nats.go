package testscale

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const natsImage = "nats:2-alpine"

// natsContainer NATS в контейнере для приёма событий сервера.
type natsContainer struct {
	container testcontainers.Container
	url       string
}

// startNATS запускает NATS контейнер и ждёт, пока он начнёт принимать соединения.
func startNATS(ctx context.Context) (*natsContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        natsImage,
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start NATS container: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, "4222/tcp", "nats")
	if err != nil {
		terminate(ctx, container)
		return nil, fmt.Errorf("get NATS endpoint: %w", err)
	}

	return &natsContainer{container: container, url: endpoint}, nil
}

// Terminate останавливает контейнер.
func (n *natsContainer) Terminate(ctx context.Context) error {
	if n == nil || n.container == nil {
		return nil
	}
	return n.container.Terminate(ctx)
}

func terminate(ctx context.Context, c testcontainers.Container) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = c.Terminate(ctx)
}
