package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		JWTSecret:         "secret",
		JWTExpireMinutes:  30,
		DraftTTL:          time.Hour,
		SubmissionLockTTL: 30 * time.Second,
		OTLPEndpoint:      "localhost:4317",
	}
}

func TestValidate(t *testing.T) {
	c := validConfig()
	require.NoError(t, c.Validate())

	c.JWTSecret = ""
	assert.ErrorIs(t, c.Validate(), errJWTSecretRequired)

	c = validConfig()
	c.DraftTTL = 0
	c.SubmissionLockTTL = -time.Second
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ONBOARDING_DRAFT_TTL")
	assert.Contains(t, err.Error(), "ONBOARDING_SUBMISSION_LOCK_TTL")
}

func TestConnectionStrings(t *testing.T) {
	c := Config{
		PostgreSQLHost:     "db",
		PostgreSQLPort:     "5432",
		PostgreSQLUser:     "portal",
		PostgreSQLPassword: "pw",
		PostgreSQLDatabase: "incubation",
		PostgreSQLSSLMode:  "disable",
		PostgreSQLSchema:   "public",
		RabbitMQAddr:       "mq",
		RabbitMQPort:       "5672",
		RabbitMQUsername:   "guest",
		RabbitMQPassword:   "p@ss",
		RabbitMQVhost:      "/",
	}

	assert.Equal(t, "host=db port=5432 user=portal password=pw dbname=incubation sslmode=disable search_path=public", c.GetDSN())
	assert.Equal(t, "amqp://guest:p%40ss@mq:5672/", c.GetRabbitMQURL())
}

func TestGatewayBaseURL(t *testing.T) {
	c := Config{ProfileServiceURL: "http://profiles:8888//"}
	assert.Equal(t, "http://profiles:8888", c.GatewayBaseURL())
}
