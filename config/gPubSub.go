package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

var (
	pubsubClient   *pubsub.Client
	pubsubTopics   = map[string]*pubsub.Topic{}
	pubsubClientMu sync.Mutex
)

func init() {
	godotenv.Load()
}

// PubSubProjectID reads PUBSUB_PROJECT_ID, then the usual GCP project variables.
func PubSubProjectID() string {
	return firstNonEmpty(os.Getenv("PUBSUB_PROJECT_ID"), os.Getenv("GOOGLE_CLOUD_PROJECT"), os.Getenv("GCP_PROJECT"))
}

// GetClient returns the shared Pub/Sub client, using Application Default Credentials
// unless PUBSUB_CREDENTIALS_JSON is set.
func GetClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	return clientLocked(ctx)
}

func clientLocked(ctx context.Context) (*pubsub.Client, error) {
	if pubsubClient != nil {
		return pubsubClient, nil
	}
	projectID := PubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var opts []option.ClientOption
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}
	c, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("init pubsub client: %w", err)
	}
	pubsubClient = c
	GetLogger().WithField("project_id", projectID).Info("pubsub client ready")
	return pubsubClient, nil
}

func CreateTopicIfNotExists(ctx context.Context, c *pubsub.Client, topic string) (*pubsub.Topic, error) {
	if c == nil {
		return nil, errors.New("pubsub client is nil")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	t := c.Topic(topic)
	ok, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return t, nil
	}
	t, err = c.CreateTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("create topic %q: %w", topic, err)
	}
	return t, nil
}

// topic returns a cached handle so publishes reuse one batching goroutine per topic.
func topic(ctx context.Context, name string, ensure bool) (*pubsub.Topic, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if t, ok := pubsubTopics[name]; ok {
		return t, nil
	}
	c, err := clientLocked(ctx)
	if err != nil {
		return nil, err
	}
	t := c.Topic(name)
	if ensure {
		if t, err = CreateTopicIfNotExists(ctx, c, name); err != nil {
			return nil, err
		}
	}
	pubsubTopics[name] = t
	return t, nil
}

// PublishJSON publishes payload as JSON and waits for the server-assigned message id.
// With ensureTopic the topic is created on first use.
func PublishJSON(ctx context.Context, topicName string, payload any, attrs map[string]string, ensureTopic bool) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	t, err := topic(ctx, topicName, ensureTopic)
	if err != nil {
		return "", err
	}
	return t.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}

func ClosePubSub() {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	for name, t := range pubsubTopics {
		t.Stop()
		delete(pubsubTopics, name)
	}
	if pubsubClient != nil {
		_ = pubsubClient.Close()
		pubsubClient = nil
	}
}
