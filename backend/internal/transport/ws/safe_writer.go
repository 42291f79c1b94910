package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SafeWriter обеспечивает потокобезопасную запись в WebSocket соединение
type SafeWriter struct {
	conn         *websocket.Conn
	mutex        sync.Mutex
	writeTimeout time.Duration
}

// NewSafeWriter создает новый экземпляр SafeWriter
func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{
		conn:         conn,
		writeTimeout: 5 * time.Second,
	}
}

// WriteJSON потокобезопасно записывает JSON данные в WebSocket соединение
func (w *SafeWriter) WriteJSON(v interface{}) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.writeTimeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
			return err
		}
	}
	return w.conn.WriteJSON(v)
}

// Close закрывает WebSocket соединение
func (w *SafeWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}

// RemoteAddr возвращает адрес клиента
func (w *SafeWriter) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}
