package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"spesecli/internal/refresh"
)

// BeaconMessage tells other clients of the same user that a domain changed.
// Like a local signal it carries no record data.
type BeaconMessage struct {
	Domain    refresh.Domain `json:"domain"`
	Stamp     int64          `json:"stamp"`
	Origin    string         `json:"origin"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewBeaconMessage(domain refresh.Domain, stamp int64, origin string) *BeaconMessage {
	return &BeaconMessage{
		Domain:    domain,
		Stamp:     stamp,
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BeaconMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BeaconMessageFromJSON decodes a message and rejects unknown domains.
func BeaconMessageFromJSON(data []byte) (*BeaconMessage, error) {
	var msg BeaconMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := refresh.ParseDomain(string(msg.Domain)); err != nil {
		return nil, err
	}
	if msg.Origin == "" {
		return nil, fmt.Errorf("beacon without origin")
	}
	return &msg, nil
}
