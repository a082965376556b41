// Package stream раздаёт новые транзакции подключённым WebSocket-клиентам.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/example/payment-aggregator/internal/domain"
)

// DefaultBuffer — размер исходящей очереди клиента по умолчанию.
const DefaultBuffer = 64

// Conn — часть *websocket.Conn, нужная рассыльщику.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	id   string
	conn Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

// Broadcaster — множество клиентов; у каждого своя очередь и свой писатель.
// Push не блокируется: при переполненной очереди сообщение для клиента отбрасывается.
type Broadcaster struct {
	buffer   int
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		buffer: buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Attach добавляет соединение и запускает его читателя и писателя. Возвращает id клиента.
func (b *Broadcaster) Attach(conn Conn) string {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan []byte, b.buffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.clients[c.id] = c
	n := len(b.clients)
	b.mu.Unlock()
	log.Printf("stream: client %s attached (%d connected)", c.id, n)

	go b.writeLoop(c)
	go b.readLoop(c)
	return c.id
}

// Push сериализует транзакцию один раз и ставит её в очередь каждого клиента.
func (b *Broadcaster) Push(tx domain.Transaction) {
	msg, err := json.Marshal(tx)
	if err != nil {
		log.Printf("stream: marshal %s: %v", tx.Key(), err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.clients {
		select {
		case c.out <- msg:
		default:
			log.Printf("stream: client %s queue full, dropped %s", c.id, tx.Key())
		}
	}
}

func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// ServeHTTP поднимает WebSocket и подключает клиента.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам ответил клиенту
		log.Printf("stream: upgrade: %v", err)
		return
	}
	b.Attach(conn)
}

// Close отключает всех клиентов.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	clients := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()
	for _, c := range clients {
		b.detach(c)
	}
}

func (b *Broadcaster) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("stream: client %s write: %v", c.id, err)
				b.detach(c)
				return
			}
		}
	}
}

// readLoop только ждёт закрытия: входящие сообщения клиентов не используются.
func (b *Broadcaster) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			b.detach(c)
			return
		}
	}
}

func (b *Broadcaster) detach(c *client) {
	c.once.Do(func() {
		b.mu.Lock()
		delete(b.clients, c.id)
		n := len(b.clients)
		b.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
		log.Printf("stream: client %s detached (%d connected)", c.id, n)
	})
}
