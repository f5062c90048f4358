package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// learning waits for someone to point the remote at the blaster and press
// a key, so attempts are long
const responseTimeout = 30 * time.Second
const responseRetries = 5

var ErrLearnTimeout = errors.New("timed out waiting for a learned code")

type learnRequest struct {
	LearnIRCode string `json:"learn_ir_code"`
}

type sendRequest struct {
	IRCodeToSend string `json:"ir_code_to_send"`
}

type learnResponse struct {
	LearnedIRCode string `json:"learned_ir_code"`
}

type learnStats struct {
	msgs      int64 // messages received on the device topic
	malformed int64 // messages that were not JSON
	codes     int64 // learned codes received
	dropped   int64 // learned codes nobody was waiting for

	requests int64 // learn requests originated
	retries  int64 // learn requests republished after a timeout
	ok1      int64 // learned w/o retry
	okN      int64 // learned after a retry
	okms     int64 // total milliseconds of successful learns
	fail     int64 // learns that ran out of retries
	sent     int64 // codes published for transmission
}

// Learner drives a Tuya IR blaster through its MQTT bridge topic: learn
// requests and codes to send go to "<topic>/set", learned codes come back
// on "<topic>".
type Learner struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
	retries int

	learned chan string

	mu    sync.Mutex
	stats *learnStats
}

func NewLearner(client mqtt.Client, topic string) *Learner {
	return &Learner{
		client:  client,
		topic:   topic,
		timeout: responseTimeout,
		retries: responseRetries,
		learned: make(chan string, 8),
		stats:   new(learnStats),
	}
}

// Start subscribes to the device topic.
func (l *Learner) Start() error {
	t := l.client.Subscribe(l.topic, l.qos, l.handleMessage)
	t.Wait()
	if err := t.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", l.topic, err)
	}
	log.Infof("MQTT: subscribe succeeded for %s", l.topic)
	return nil
}

func (l *Learner) handleMessage(client mqtt.Client, msg mqtt.Message) {
	l.count(func(s *learnStats) { s.msgs++ })

	var resp learnResponse
	if err := json.Unmarshal(msg.Payload(), &resp); err != nil {
		l.count(func(s *learnStats) { s.malformed++ })
		log.Warnf("MQTT: ignoring malformed message on %s: %s", msg.Topic(), err)
		return
	}
	if resp.LearnedIRCode == "" {
		return
	}

	l.count(func(s *learnStats) { s.codes++ })
	select {
	case l.learned <- resp.LearnedIRCode:
	default:
		l.count(func(s *learnStats) { s.dropped++ })
		log.Warn("dropping unexpected learned code")
	}
}

// Learn asks the blaster to learn one code and waits for it, repeating the
// request after each timeout.
func (l *Learner) Learn(ctx context.Context) (string, error) {
	l.drain()

	l.count(func(s *learnStats) { s.requests++ })
	stime := time.Now()
	if err := l.publish(learnRequest{LearnIRCode: "ON"}); err != nil {
		return "", err
	}

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()
	for tries := 0; tries < l.retries; {
		select {
		case code := <-l.learned:
			l.count(func(s *learnStats) {
				if tries == 0 {
					s.ok1++
				} else {
					s.okN++
				}
				s.okms += time.Since(stime).Milliseconds()
			})
			return code, nil
		case <-timer.C:
			tries++
			if tries == l.retries {
				continue
			}
			log.Debug("timeout waiting for learned code, repeating learn request")
			l.count(func(s *learnStats) { s.retries++ })
			if err := l.publish(learnRequest{LearnIRCode: "ON"}); err != nil {
				return "", err
			}
			timer.Reset(l.timeout)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	log.Printf("learn request timed out")
	l.count(func(s *learnStats) { s.fail++ })
	return "", ErrLearnTimeout
}

// Send asks the blaster to transmit a wire code.
func (l *Learner) Send(code string) error {
	if err := l.publish(sendRequest{IRCodeToSend: code}); err != nil {
		return err
	}
	l.count(func(s *learnStats) { s.sent++ })
	return nil
}

func (l *Learner) publish(v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	topic := l.topic + "/set"
	log.Infof("MQTT PUB: %s -> %s", topic, body)
	t := l.client.Publish(topic, l.qos, false, body)
	t.Wait()
	if err := t.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (l *Learner) drain() {
	for {
		select {
		case code := <-l.learned:
			log.Debugf("discarding stale learned code %s", code)
		default:
			return
		}
	}
}

func (l *Learner) count(f func(*learnStats)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f(l.stats)
}

// statsString returns the counters since the last call and resets them.
func (l *Learner) statsString() string {
	l.mu.Lock()
	ostats := l.stats
	l.stats = new(learnStats)
	l.mu.Unlock()

	// calculate avgs
	if ostats.ok1 > 0 || ostats.okN > 0 {
		ostats.okms = ostats.okms / (ostats.ok1 + ostats.okN)
	}
	return fmt.Sprintf("%+v", *ostats)
}
