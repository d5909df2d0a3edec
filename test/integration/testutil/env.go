package testutil

import (
	"os"
	"testing"
	"time"
	"tourdesk/pkg/client"
)

const DefaultHealthCheckTimeout = 30 * time.Second

// TestEnv points at a scheduler started outside the test binary, usually by
// docker compose with the Mongo backend.
type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
}

// NewTestEnv skips the calling test unless TEST_SERVER_URL is set.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		t.Skip("TEST_SERVER_URL not set; skipping integration test")
	}

	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", ""),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    serverURL,
	}
}

// Setup waits for the scheduler and, when TEST_MONGO_URI is set, connects to
// its database and empties it.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.HttpClient) {
	t.Helper()

	var mongo *MongoHelper
	if e.MongoURI != "" {
		mongo = NewMongoHelper(t, e.MongoURI, e.DatabaseName)
		mongo.CleanDatabase(t)
	}

	httpClient := client.NewHttpClient(e.ServerURL)
	if err := httpClient.WaitForHealthy(DefaultHealthCheckTimeout); err != nil {
		t.Fatalf("scheduler at %s is not healthy: %v", e.ServerURL, err)
	}

	return mongo, httpClient
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
