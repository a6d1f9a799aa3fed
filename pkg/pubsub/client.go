package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/gcp"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

type resourceKind string

const (
	kindTopic        resourceKind = "topics"
	kindSubscription resourceKind = "subscriptions"
)

// Requirement names a Pub/Sub resource a binary cannot run without.
type Requirement struct {
	kind resourceKind
	name string
}

// RequireTopic makes NewClient and Ping fail when the topic is missing.
func RequireTopic(name string) Requirement {
	return Requirement{kind: kindTopic, name: strings.TrimSpace(name)}
}

// RequireSubscription makes NewClient and Ping fail when the subscription is missing.
func RequireSubscription(name string) Requirement {
	return Requirement{kind: kindSubscription, name: strings.TrimSpace(name)}
}

// Client hands out publishers and subscribers for the order event stream.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
	required  []Requirement
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger, required ...Requirement) (*Client, error) {
	projectID := strings.TrimSpace(gcpCfg.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	for _, req := range required {
		if req.name == "" {
			return nil, fmt.Errorf("pubsub %s name is required", strings.TrimSuffix(string(req.kind), "s"))
		}
	}

	psClient, err := pubsub.NewClient(ctx, projectID, gcp.ClientOptions(gcpCfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: psClient, projectID: projectID, cfg: cfg, required: required}
	if err := c.verify(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "pubsub_resources", len(required)), "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) verify(ctx context.Context) error {
	for _, req := range c.required {
		full := c.resourceName(req.kind, req.name)
		var err error
		switch req.kind {
		case kindTopic:
			_, err = c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: full})
		case kindSubscription:
			_, err = c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: full})
		}
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("pubsub resource %s does not exist", full)
		}
		if err != nil {
			return fmt.Errorf("checking pubsub resource %s: %w", full, err)
		}
	}
	return nil
}

func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName(kindSubscription, name)
	if full == "" {
		return nil
	}
	return c.client.Subscriber(full)
}

// OrdersSubscription is the analytics consumer's view of the order stream.
func (c *Client) OrdersSubscription() *pubsub.Subscriber {
	if c == nil {
		return nil
	}
	return c.Subscription(c.cfg.OrdersSubscription)
}

func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName(kindTopic, name)
	if full == "" {
		return nil
	}
	return c.client.Publisher(full)
}

// OrdersPublisher publishes order and payment domain events.
func (c *Client) OrdersPublisher() *pubsub.Publisher {
	if c == nil {
		return nil
	}
	return c.Publisher(c.cfg.OrdersTopic)
}

// Ping re-checks every required resource.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	return c.verify(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// resourceName expands a short id into projects/<p>/<kind>/<id>; full names
// of the same kind pass through.
func (c *Client) resourceName(kind resourceKind, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+string(kind)+"/") {
		return n
	}
	if c.projectID == "" {
		return ""
	}
	return "projects/" + c.projectID + "/" + string(kind) + "/" + n
}
