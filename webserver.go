package main

import (
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/net/websocket"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type decodeRequest struct {
	Code   string   `json:"code"`
	Pulses []uint16 `json:"pulses"`
}

type diffRequest struct {
	Codes []string `json:"codes" binding:"required"`
}

type diffFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type diffResponse struct {
	Entries  []BatchEntry  `json:"entries"`
	Failures []diffFailure `json:"failures"`
	Changed  Payload       `json:"changed"`
	Marker   string        `json:"marker"`
	Ruler    string        `json:"ruler"`
}

func handleErrors(c *gin.Context) {
	c.Next()

	if len(c.Errors) > 0 {
		c.JSON(-1, c.Errors) // -1 == not override the current error code
	}
}

func abortDecode(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": errorKind(err)})
}

// newRouter builds the API. learner may be nil when no broker is configured.
func newRouter(remote *Remote, learner *Learner) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handleErrors) // attach error handling middleware

	api := r.Group("/api")

	api.POST("/encode", func(c *gin.Context) {
		args := DefaultSettings()
		if err := c.ShouldBindJSON(&args); err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		enc := remote.Encode(args)
		wsCache.update("encoded", enc)
		c.JSON(http.StatusOK, enc)
	})

	api.POST("/decode", func(c *gin.Context) {
		var args decodeRequest
		if err := c.ShouldBindJSON(&args); err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}

		var dec Decoded
		var err error
		switch {
		case args.Code != "":
			dec, err = remote.DecodeCode(args.Code)
		case len(args.Pulses) > 0:
			dec, err = remote.DecodePulses(args.Pulses)
		default:
			c.AbortWithError(http.StatusBadRequest, errors.New("one of code or pulses is required"))
			return
		}
		if err != nil {
			abortDecode(c, err)
			return
		}
		c.JSON(http.StatusOK, dec)
	})

	api.POST("/diff", func(c *gin.Context) {
		var args diffRequest
		if err := c.ShouldBindJSON(&args); err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}

		rep := remote.Analyzer().AnalyzeWire(args.Codes)
		resp := diffResponse{
			Entries:  rep.Entries,
			Failures: []diffFailure{},
			Changed:  rep.Changed,
			Marker:   rep.Marker(),
			Ruler:    rulerFor(rep.Width),
		}
		if resp.Entries == nil {
			resp.Entries = []BatchEntry{}
		}
		for _, f := range rep.Failures {
			resp.Failures = append(resp.Failures, diffFailure{Index: f.Index, Error: f.Err.Error(), Kind: errorKind(f.Err)})
		}
		c.JSON(http.StatusOK, resp)
	})

	api.POST("/send", func(c *gin.Context) {
		if learner == nil {
			c.AbortWithError(http.StatusServiceUnavailable, errors.New("no MQTT broker configured"))
			return
		}
		args := DefaultSettings()
		if err := c.ShouldBindJSON(&args); err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		enc := remote.Encode(args)
		if err := learner.Send(enc.Code); err != nil {
			c.AbortWithError(http.StatusBadGateway, err)
			return
		}
		wsCache.update("sent", enc)
		c.JSON(http.StatusOK, enc)
	})

	api.GET("/learned", func(c *gin.Context) {
		rec, ok := wsCache.get("learned").(*CodeRecord)
		if !ok {
			c.AbortWithError(http.StatusNotFound, errors.New("no code learned yet"))
			return
		}
		c.JSON(http.StatusOK, rec)
	})

	api.GET("/last", func(c *gin.Context) {
		c.JSON(http.StatusOK, wsCache.dump())
	})

	api.GET("/ws", func(c *gin.Context) {
		h := websocket.Handler(attachListener)
		h.ServeHTTP(c.Writer, c.Request)
	})

	return r
}

func webserver(port int, remote *Remote, learner *Learner) error {
	r := newRouter(remote, learner)
	return r.Run(":" + strconv.Itoa(port)) // listen and server on 0.0.0.0:8080
}

// attachListener streams code events to a websocket, starting with the
// cached state so a new page shows the latest codes at once.
func attachListener(ws *websocket.Conn) {
	listener := Dispatcher.subscribe(32)
	defer func() {
		Dispatcher.unsubscribe(listener)
		log.Debug("closing websocket")
		if err := ws.Close(); err != nil {
			log.Warnf("error on ws close: %v", err)
		}
	}()

	for source, data := range wsCache.dump() {
		if _, err := ws.Write(serializeEvent(source, data)); err != nil {
			log.Warnf("error on websocket write: %v", err)
			return
		}
	}

	for message := range listener.ch {
		if _, err := ws.Write(message); err != nil {
			log.Warnf("error on websocket write: %v", err)
			return
		}
	}
	log.Debug("websocket listener closed by dispatcher")
}
