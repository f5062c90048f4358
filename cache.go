package main

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/npat-efault/crc16"
)

type cacheMapType map[string]interface{}
type Cache struct {
	cacheMap   cacheMapType
	cacheMutex sync.Mutex
}

// holds the most recent code of each kind for the API and new websocket
// listeners; nothing is persisted
var wsCache Cache = Cache{cacheMap: make(cacheMapType)}

func (c *Cache) update(name string, data interface{}) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	old := c.cacheMap[name]
	if !reflect.DeepEqual(old, data) {
		Dispatcher.broadcastEvent(name, data)
		c.cacheMap[name] = data
	}
}

func (c *Cache) get(name string) interface{} {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	return c.cacheMap[name]
}

func (c *Cache) clear() {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cacheMap = make(cacheMapType)
}

func (c *Cache) dump() cacheMapType {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	n := make(cacheMapType)
	for k, v := range c.cacheMap {
		n[k] = v
	}
	return n
}

// CodeRecord is a wire code seen by the service together with its decoding.
type CodeRecord struct {
	ID       string    `json:"id"`
	Code     string    `json:"code"`
	Settings *Settings `json:"settings,omitempty"`
	Error    string    `json:"error,omitempty"`
	Kind     string    `json:"kind,omitempty"`
	Time     time.Time `json:"time"`
}

var crcConfig = &crc16.Conf{
	Poly: 0x8005, BitRev: true,
	IniVal: 0x0, FinVal: 0x0,
	BigEnd: false,
}

// codeID fingerprints a wire code so repeated captures of the same button
// press are easy to spot in logs.
func codeID(code string) string {
	s := crc16.New(crcConfig)
	s.Write([]byte(code))
	return fmt.Sprintf("%04x", s.Sum16())
}

func newCodeRecord(r *Remote, code string) *CodeRecord {
	rec := &CodeRecord{ID: codeID(code), Code: code, Time: time.Now()}
	d, err := r.DecodeCode(code)
	if err != nil {
		rec.Error = err.Error()
		rec.Kind = errorKind(err)
	} else {
		rec.Settings = &d.Settings
	}
	return rec
}
