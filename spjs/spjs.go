// Package spjs is a client for Serial Port JSON Server, a websocket
// bridge to serial-attached controllers.
package spjs

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const reconnectDelay = 3 * time.Second

var (
	// ErrClosed is returned when sending on a closed client.
	ErrClosed = errors.New("spjs: client closed")

	// ErrFull is returned when the outgoing buffer is full.
	ErrFull = errors.New("spjs: send buffer full")
)

type Client struct {
	url string

	outgoing chan []byte
	incoming chan interface{}
	closeCh  chan struct{}
	once     sync.Once
}

type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}
type CmdStatus struct {
	Cmd        string
	QueueCount int    `json:"QCnt"`
	ID         string `json:"Id"`
	Port       string `json:"P"`
}

type ErrorMessage struct {
	Error string
}
type SerialPortList struct {
	SerialPorts []SerialPort
}
type SerialPort struct {
	Name            string
	Friendly        string
	IsOpen          bool
	Baud            int
	BufferAlgorithm string
}

// JSON is the payload of a `sendjson` command.
type JSON struct {
	Port string `json:"P"`
	Data []Data
}
type Data struct {
	Data string `json:"D"`
	ID   string `json:"Id"`
}

// NewClient connects to url in the background, reconnecting as needed.
func NewClient(url string) *Client {
	sp := &Client{
		url:      url,
		outgoing: make(chan []byte, 1000),
		incoming: make(chan interface{}, 1000),
		closeCh:  make(chan struct{}),
	}

	go sp.loop()

	return sp
}

// Messages delivers parsed messages from the server.
func (sp *Client) Messages() <-chan interface{} {
	return sp.incoming
}

func (sp *Client) Close() error {
	sp.once.Do(func() { close(sp.closeCh) })
	return nil
}

func parseMessage(data []byte) (interface{}, error) {
	var msg map[string]json.RawMessage
	err := json.Unmarshal(data, &msg)
	if err != nil {
		return nil, err
	}

	var val interface{}
	switch {
	case msg["Error"] != nil:
		val = &ErrorMessage{}
	case msg["SerialPorts"] != nil:
		val = &SerialPortList{}
	case msg["Cmd"] != nil:
		val = &CmdStatus{}
	case msg["D"] != nil:
		val = &DataFrame{}
	default:
		return nil, errors.New("unknown message: " + string(data))
	}

	err = json.Unmarshal(data, val)
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (sp *Client) readLoop(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.Println("ERROR: read:", err)
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		val, err := parseMessage(data)
		if err != nil {
			log.Println("ERROR: parse:", err)
			continue
		}
		select {
		case sp.incoming <- val:
		case <-sp.closeCh:
			return
		}
	}
}

func (sp *Client) loop() {
	var nextUp []byte

	for {
		select {
		case <-sp.closeCh:
			return
		default:
		}

		log.Println("Connecting to", sp.url)
		ws, _, err := websocket.DefaultDialer.Dial(sp.url, nil)
		if err != nil {
			log.Println("ERROR: connect:", err)
			select {
			case <-time.After(reconnectDelay):
			case <-sp.closeCh:
				return
			}
			continue
		}
		log.Println("Connected.")

		nextUp = sp.session(ws, nextUp)
		ws.Close()
	}
}

// session runs until the connection drops or the client closes,
// returning any payload that still needs to be sent.
func (sp *Client) session(ws *websocket.Conn, nextUp []byte) []byte {
	done := make(chan struct{})
	go sp.readLoop(ws, done)

	// refresh port list on (re)connect
	err := ws.WriteMessage(websocket.TextMessage, []byte("list"))
	if err != nil {
		log.Println("ERROR: send:", err)
		return nextUp
	}

	for {
		if nextUp != nil {
			err = ws.WriteMessage(websocket.TextMessage, nextUp)
			if err != nil {
				log.Println("ERROR: send:", err)
				return nextUp
			}
			nextUp = nil
		}

		select {
		case <-sp.closeCh:
			return nil
		case <-done:
			return nil
		case nextUp = <-sp.outgoing:
		}
	}
}

func (sp *Client) send(payload []byte) error {
	select {
	case <-sp.closeCh:
		return ErrClosed
	default:
	}
	select {
	case sp.outgoing <- payload:
		return nil
	default:
		return ErrFull
	}
}

// SendJSON queues a `sendjson` command without waiting for it to be written.
func (sp *Client) SendJSON(v JSON) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sp.send(append([]byte("sendjson "), data...))
}

// WriteString queues a raw command, like `list` or `open <port> grbl 115200`.
func (sp *Client) WriteString(data string) error {
	return sp.send([]byte(data))
}
