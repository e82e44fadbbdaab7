package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	domain "github.com/janseva/api/internal/domain"
)

// ActionMessage is the wire payload for a backend action dispatched to workers.
type ActionMessage struct {
	CheckID               string     `json:"checkId"`
	UserID                string     `json:"userId"`
	ServiceType           string     `json:"serviceType"`
	RequestType           string     `json:"requestType"`
	ActionType            string     `json:"actionType"`
	Description           string     `json:"description"`
	DescriptionHi         string     `json:"descriptionHi,omitempty"`
	Priority              int        `json:"priority"`
	ScheduledFor          *time.Time `json:"scheduledFor,omitempty"`
	EstimatedCompletion   string     `json:"estimatedCompletion,omitempty"`
	EstimatedCompletionHi string     `json:"estimatedCompletionHi,omitempty"`
}

// PubSubActionDispatcher publishes backend action messages to a Pub/Sub topic
// where operational workers pick them up.
type PubSubActionDispatcher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubActionDispatcher constructs a Pub/Sub backed action dispatcher.
func NewPubSubActionDispatcher(topic *pubsub.Topic) (*PubSubActionDispatcher, error) {
	if topic == nil {
		return nil, errors.New("pubsub action dispatcher: topic is required")
	}
	return &PubSubActionDispatcher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// DispatchAction enqueues one backend action on the configured topic and
// returns the Pub/Sub message ID.
func (p *PubSubActionDispatcher) DispatchAction(ctx context.Context, checkID string, request domain.CheckRequest, action domain.BackendAction) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub action dispatcher: not initialised")
	}

	message := ActionMessage{
		CheckID:               checkID,
		UserID:                request.UserID,
		ServiceType:           string(request.ServiceType),
		RequestType:           string(request.RequestType),
		ActionType:            action.ActionType,
		Description:           action.Description.En,
		DescriptionHi:         action.Description.Hi,
		Priority:              action.Priority,
		EstimatedCompletion:   action.EstimatedCompletion.En,
		EstimatedCompletionHi: action.EstimatedCompletion.Hi,
	}
	if action.ScheduledFor != nil {
		scheduled := action.ScheduledFor.UTC()
		message.ScheduledFor = &scheduled
	}
	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal action message: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "checkId", checkID)
	setAttr(attrs, "actionType", action.ActionType)
	setAttr(attrs, "serviceType", string(request.ServiceType))
	setAttr(attrs, "requestType", string(request.RequestType))
	attrs["priority"] = strconv.Itoa(action.Priority)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish action message: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
