package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	qt "github.com/frankban/quicktest"
)

type fakeToken struct {
	mqtt.Token
	err error
}

func (t *fakeToken) Wait() bool   { return true }
func (t *fakeToken) Error() error { return t.err }

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

// fakeBlaster stands in for the broker and the IR blaster behind it. It
// answers the n-th learn request (1-based) with code.
type fakeBlaster struct {
	mqtt.Client

	mu         sync.Mutex
	handler    mqtt.MessageHandler
	published  []string
	topics     []string
	answerOn   int
	code       string
	requests   int
	publishErr error
	subErr     error
}

func (b *fakeBlaster) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = callback
	return &fakeToken{err: b.subErr}
}

func (b *fakeBlaster) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return &fakeToken{err: b.publishErr}
	}
	body := string(payload.([]byte))
	b.published = append(b.published, body)
	b.topics = append(b.topics, topic)

	if strings.Contains(body, "learn_ir_code") {
		b.requests++
		if b.requests == b.answerOn {
			go b.deliver(`{"learned_ir_code":"` + b.code + `"}`)
		}
	}
	return &fakeToken{}
}

func (b *fakeBlaster) deliver(body string) {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	h(b, &fakeMessage{topic: "blaster", payload: []byte(body)})
}

func (b *fakeBlaster) publishCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

func newTestLearner(c *qt.C, b *fakeBlaster) *Learner {
	l := NewLearner(b, "blaster")
	l.timeout = 20 * time.Millisecond
	c.Assert(l.Start(), qt.IsNil)
	return l
}

func TestLearn(t *testing.T) {
	c := qt.New(t)
	b := &fakeBlaster{answerOn: 1, code: "CODE1"}
	l := newTestLearner(c, b)

	code, err := l.Learn(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.Equals, "CODE1")
	c.Assert(b.published, qt.DeepEquals, []string{`{"learn_ir_code":"ON"}`})
	c.Assert(b.topics, qt.DeepEquals, []string{"blaster/set"})
	c.Assert(l.stats.ok1, qt.Equals, int64(1))
	c.Assert(l.stats.requests, qt.Equals, int64(1))
}

func TestLearnRetries(t *testing.T) {
	c := qt.New(t)
	b := &fakeBlaster{answerOn: 3, code: "CODE3"}
	l := newTestLearner(c, b)

	code, err := l.Learn(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.Equals, "CODE3")
	c.Assert(b.publishCount(), qt.Equals, 3)
	c.Assert(l.stats.retries, qt.Equals, int64(2))
	c.Assert(l.stats.okN, qt.Equals, int64(1))
}

func TestLearnTimeout(t *testing.T) {
	c := qt.New(t)
	b := &fakeBlaster{}
	l := newTestLearner(c, b)
	l.timeout = 5 * time.Millisecond
	l.retries = 3

	_, err := l.Learn(context.Background())
	c.Assert(err, qt.ErrorIs, ErrLearnTimeout)
	c.Assert(b.publishCount(), qt.Equals, 3)
	c.Assert(l.stats.fail, qt.Equals, int64(1))
}

func TestLearnCanceled(t *testing.T) {
	c := qt.New(t)
	b := &fakeBlaster{}
	l := newTestLearner(c, b)
	l.timeout = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Learn(ctx)
	c.Assert(err, qt.ErrorIs, context.Canceled)
}

func TestLearnPublishError(t *testing.T) {
	c := qt.New(t)
	b := &fakeBlaster{publishErr: errors.New("not connected")}
	l := newTestLearner(c, b)

	_, err := l.Learn(context.Background())
	c.Assert(err, qt.ErrorMatches, "publish blaster/set: not connected")
}

func TestStartSubscribeError(t *testing.T) {
	c := qt.New(t)
	l := NewLearner(&fakeBlaster{subErr: errors.New("denied")}, "blaster")
	c.Assert(l.Start(), qt.ErrorMatches, "subscribe blaster: denied")
}

func TestLearnDiscardsStaleCodes(t *testing.T) {
	c := qt.New(t)
	b := &fakeBlaster{answerOn: 1, code: "FRESH"}
	l := newTestLearner(c, b)

	b.deliver(`{"learned_ir_code":"STALE"}`)
	code, err := l.Learn(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.Equals, "FRESH")
}

func TestHandleMessage(t *testing.T) {
	c := qt.New(t)
	b := &fakeBlaster{}
	l := newTestLearner(c, b)

	b.deliver(`not json`)
	b.deliver(`{"linkquality":87}`)
	for i := 0; i < cap(l.learned)+1; i++ {
		b.deliver(`{"learned_ir_code":"X"}`)
	}

	c.Assert(l.stats.msgs, qt.Equals, int64(2+cap(l.learned)+1))
	c.Assert(l.stats.malformed, qt.Equals, int64(1))
	c.Assert(l.stats.codes, qt.Equals, int64(cap(l.learned)+1))
	c.Assert(l.stats.dropped, qt.Equals, int64(1))
	c.Assert(len(l.learned), qt.Equals, cap(l.learned))

	c.Assert(l.statsString(), qt.Contains, "malformed:1")
	c.Assert(l.stats.msgs, qt.Equals, int64(0))
}

func TestSend(t *testing.T) {
	c := qt.New(t)
	b := &fakeBlaster{}
	l := newTestLearner(c, b)

	c.Assert(l.Send("Bz4jnhE"), qt.IsNil)
	c.Assert(b.topics, qt.DeepEquals, []string{"blaster/set"})

	var req sendRequest
	c.Assert(json.Unmarshal([]byte(b.published[0]), &req), qt.IsNil)
	c.Assert(req.IRCodeToSend, qt.Equals, "Bz4jnhE")
	c.Assert(l.stats.sent, qt.Equals, int64(1))
}

func TestLearnLoop(t *testing.T) {
	c := qt.New(t)
	r := newTestRemote(c)
	enc := r.Encode(Settings{Power: true, Temperature: 25, Mode: ModeCool, FanSpeed: FanHigh, Button: ButtonMinus})

	b := &fakeBlaster{answerOn: 1, code: enc.Code}
	l := newTestLearner(c, b)

	var out bytes.Buffer
	c.Assert(learnLoop(context.Background(), r, l, 1, &out), qt.IsNil)
	c.Assert(out.String(), qt.Equals, enc.Code+"\n")

	rec, ok := wsCache.get("learned").(*CodeRecord)
	c.Assert(ok, qt.IsTrue)
	c.Assert(rec.Code, qt.Equals, enc.Code)
	c.Assert(rec.Error, qt.Equals, "")
	c.Assert(*rec.Settings, qt.Equals, enc.Settings)
}

func TestLearnLoopStopsOnCancel(t *testing.T) {
	c := qt.New(t)
	l := newTestLearner(c, &fakeBlaster{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	c.Assert(learnLoop(ctx, newTestRemote(c), l, 0, &out), qt.IsNil)
	c.Assert(out.Len(), qt.Equals, 0)
}
