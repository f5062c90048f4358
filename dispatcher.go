package main

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// EventListener receives serialized events until its channel is closed.
type EventListener struct {
	ch chan []byte
}

// EventDispatcher fans code events out to websocket listeners. A listener
// that falls behind is dropped rather than stalling everyone else.
type EventDispatcher struct {
	listeners  map[*EventListener]bool
	broadcast  chan []byte
	register   chan *EventListener
	deregister chan *EventListener
}

var Dispatcher *EventDispatcher = newEventDispatcher()

func newEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *EventListener),
		deregister: make(chan *EventListener),
		listeners:  make(map[*EventListener]bool),
	}
}

type codeEvent struct {
	Source string      `json:"source"` // encoded, sent or learned
	Time   time.Time   `json:"time"`
	Data   interface{} `json:"data"`
}

func serializeEvent(source string, data interface{}) []byte {
	msg, err := json.Marshal(&codeEvent{Source: source, Time: time.Now(), Data: data})
	if err != nil {
		log.Errorf("serializing %s event: %v", source, err)
	}
	return msg
}

// broadcastEvent queues an event for all listeners. It never blocks: the
// cache calls it with its lock held.
func (d *EventDispatcher) broadcastEvent(source string, data interface{}) {
	select {
	case d.broadcast <- serializeEvent(source, data):
	default:
		log.Warnf("event queue full, dropping %s event", source)
	}
}

func (d *EventDispatcher) subscribe(buffer int) *EventListener {
	l := &EventListener{ch: make(chan []byte, buffer)}
	d.register <- l
	return l
}

func (d *EventDispatcher) unsubscribe(l *EventListener) {
	d.deregister <- l
}

func (d *EventDispatcher) run() {
	for {
		select {
		case listener := <-d.register:
			d.listeners[listener] = true
		case listener := <-d.deregister:
			if _, ok := d.listeners[listener]; ok {
				delete(d.listeners, listener)
				close(listener.ch)
			}
		case message := <-d.broadcast:
			for listener := range d.listeners {
				select {
				case listener.ch <- message:
				default:
					log.Warn("websocket listener too slow, disconnecting")
					close(listener.ch)
					delete(d.listeners, listener)
				}
			}
		}
	}
}

// ConnectMqtt connects to the broker; the caller owns the client.
func ConnectMqtt(cfg mqttConfig) (mqtt.Client, error) {
	co := mqtt.NewClientOptions()
	co.AddBroker(cfg.Broker)
	if cfg.Username != "" {
		co.SetUsername(cfg.Username)
		co.SetPassword(cfg.Password)
	}
	co.SetClientID(cfg.ClientID)
	co.SetAutoReconnect(true)
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("MQTT: connection lost: ", err)
	})

	cl := mqtt.NewClient(co)
	t := cl.Connect()
	t.Wait()
	if t.Error() != nil {
		log.Error("MQTT: failed to connect to MQTT broker: ", t.Error())
		return nil, t.Error()
	}
	log.Info("MQTT: connected to MQTT broker")
	return cl, nil
}

func init() {
	go Dispatcher.run()
}
