package test

import (
	"os"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresService = "rs-postgres"
	RedisService    = "rs-redis"

	// SkipInfrastructureEnv set to "true" runs against services that are
	// already up.
	SkipInfrastructureEnv = "SKIP_INFRASTRUCTURE"
)

type LocalTestFixture struct {
	compose testcontainers.DockerCompose
}

// NewLocalTestFixture brings up Postgres and Redis from the compose file and
// waits until both accept connections.
func NewLocalTestFixture(dockerComposePath string) (LocalTestFixture, error) {
	compose := testcontainers.NewLocalDockerCompose(
		[]string{dockerComposePath},
		uuid.New().String(),
	).
		WithCommand([]string{"up", "-d"}).
		WaitForService(PostgresService, wait.ForListeningPort(nat.Port("5432/tcp"))).
		WaitForService(RedisService, wait.ForListeningPort(nat.Port("6379/tcp")))

	return LocalTestFixture{compose: compose}, nil
}

func (f *LocalTestFixture) Start() error {
	if skip() {
		return nil
	}

	execErr := f.compose.Invoke()
	return execErr.Error
}

func (f *LocalTestFixture) Stop() error {
	if skip() {
		return nil
	}

	execErr := f.compose.Down()
	return execErr.Error
}

func skip() bool {
	return os.Getenv(SkipInfrastructureEnv) == "true"
}
