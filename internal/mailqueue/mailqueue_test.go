package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/config"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestEncode(t *testing.T) {
	publishing, err := Encode(domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   "student1@example.com",
		Data: domain.ResetPasswordMailData{FullName: "张三", OTP: "012345", Expiration: 15},
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", publishing.ContentType)
	assert.Equal(t, amqp.Persistent, publishing.DeliveryMode)
	assert.JSONEq(t,
		`{"type":"reset_password","to":"student1@example.com","data":{"fullName":"张三","otp":"012345","expiration":15}}`,
		string(publishing.Body),
	)
}

func TestPublisher_Publish(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过需要 Docker 的集成测试")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	conn, err := amqp.Dial(fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port()))
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	cfg := &config.Config{}
	cfg.RabbitMQ.Queue = "email_queue"
	cfg.RabbitMQ.PublishTimeout = 10

	_, err = DeclareQueue(ch, cfg.RabbitMQ.Queue)
	require.NoError(t, err)

	publisher := NewPublisher(cfg, ch)
	require.NoError(t, publisher.Publish(domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   "alumni1@example.com",
		Data: domain.CreateUserMailData{FullName: "李四", Username: "alumni1", Password: "pw", Role: "校友"},
	}))

	var delivery amqp.Delivery
	require.Eventually(t, func() bool {
		d, ok, err := ch.Get(cfg.RabbitMQ.Queue, true)
		if err != nil || !ok {
			return false
		}
		delivery = d
		return true
	}, 10*time.Second, 100*time.Millisecond)

	msg := domain.MailMessage{}
	require.NoError(t, json.Unmarshal(delivery.Body, &msg))
	assert.Equal(t, domain.MailTypeCreateUser, msg.Type)
	assert.Equal(t, "alumni1@example.com", msg.To)
}
