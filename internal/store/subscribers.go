package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/amishk599/jobradar/internal/kv"
	"github.com/amishk599/jobradar/internal/model"
)

var _ model.SubscriberLister = (*SubscriberStore)(nil)

// SubscriberStore reads and writes user:<chatId> records. The chat bot owns
// these keys; the pipeline only reads them.
type SubscriberStore struct {
	base
}

func NewSubscriberStore(k kv.Store, opTimeout time.Duration) *SubscriberStore {
	return &SubscriberStore{base: newBase(k, opTimeout)}
}

// Subscribers returns every subscriber ordered by chat id.
func (s *SubscriberStore) Subscribers(ctx context.Context) ([]model.Subscriber, error) {
	keys, err := s.keys(ctx, prefixSubscriber)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}

	subs := make([]model.Subscriber, 0, len(keys))
	for _, key := range keys {
		var sub model.Subscriber
		found, err := s.getJSON(ctx, key, &sub)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", key, err)
		}
		if !found {
			continue
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ChatID < subs[j].ChatID })
	return subs, nil
}

// Get returns one subscriber, or nil if the chat never registered.
func (s *SubscriberStore) Get(ctx context.Context, chatID int64) (*model.Subscriber, error) {
	var sub model.Subscriber
	found, err := s.getJSON(ctx, subscriberKey(chatID), &sub)
	if err != nil || !found {
		return nil, err
	}
	return &sub, nil
}

// Save writes a subscriber record.
func (s *SubscriberStore) Save(ctx context.Context, sub model.Subscriber) error {
	if sub.Professions == nil {
		sub.Professions = []string{}
	}
	return s.setJSON(ctx, subscriberKey(sub.ChatID), sub, 0)
}
