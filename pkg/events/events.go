// Package events carries domain notifications over NATS. Subjects follow
// "<base>.<entity id>" so subscribers can filter with a trailing wildcard.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/simorq_availability/config"
	"github.com/Alijeyrad/simorq_availability/pkg/constants"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Subject joins a base subject and an entity id.
func Subject(base, id string) string {
	return base + "." + id
}

// Wildcard matches every entity under base.
func Wildcard(base string) string {
	return base + ".*"
}

// LastToken returns the entity id of a subject built with Subject.
func LastToken(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return subject
}

// ScheduleUpdated is published after a schedule aggregate is replaced.
type ScheduleUpdated struct {
	ScheduleID     string    `json:"schedule_id"`
	ProfessionalID string    `json:"professional_id"`
	Version        int64     `json:"version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func PublishScheduleUpdated(p Publisher, ev ScheduleUpdated) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode schedule.updated: %w", err)
	}
	return p.Publish(Subject(constants.SubjectScheduleUpdated, ev.ProfessionalID), data)
}

// Nop drops every message. It stands in when NATS is disabled.
type Nop struct{}

func (Nop) Publish(string, []byte) error { return nil }

// Connect dials NATS with reconnect logging.
func Connect(cfg config.NatsConfig) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(constants.ServiceName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	return nc, nil
}
