package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cloth-sim/backend/internal/core/port/in/simulation"
)

const DefaultPingInterval = 2 * time.Second // Интервал отправки пингов

// MessageHandler - тип функции обработчика сообщений
type MessageHandler func(conn *SafeWriter, message interface{}) error

// WSServer раздает кадры симуляции и принимает команды управления
type WSServer struct {
	upgrader     websocket.Upgrader
	sim          simulation.SimulationPort
	handlers     map[string]MessageHandler
	pingInterval time.Duration
	logger       *log.Logger

	clients   map[*SafeWriter]struct{}
	clientsMu sync.RWMutex
}

// NewWSServer создает новый экземпляр WebSocket сервера
func NewWSServer(sim simulation.SimulationPort, logger *log.Logger) *WSServer {
	if logger == nil {
		logger = log.Default()
	}

	server := &WSServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sim:          sim,
		handlers:     make(map[string]MessageHandler),
		pingInterval: DefaultPingInterval,
		logger:       logger,
		clients:      make(map[*SafeWriter]struct{}),
	}

	// Регистрируем стандартные обработчики
	server.RegisterHandler(MessageTypePing, server.handlePing)
	server.RegisterHandler(MessageTypePong, server.handlePong)
	server.RegisterHandler(MessageTypeCommand, server.handleCmd)

	return server
}

// RegisterHandler регистрирует обработчик для конкретного типа сообщений
func (s *WSServer) RegisterHandler(messageType string, handler MessageHandler) {
	s.handlers[messageType] = handler
}

// SetPingInterval устанавливает интервал отправки пингов; 0 отключает пинги
func (s *WSServer) SetPingInterval(interval time.Duration) {
	s.pingInterval = interval
}

// Register подключает обработчик /ws к mux
func (s *WSServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleWS)
	s.logger.Printf("[WSServer] WebSocket сервер запущен на /ws")
}

// HandleWS обрабатывает входящие WebSocket соединения
func (s *WSServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[WSServer] Ошибка upgrade: %v", err)
		return
	}

	safeConn := NewSafeWriter(conn)
	defer func() {
		s.removeClient(safeConn)
		safeConn.Close()
	}()

	s.logger.Printf("[WSServer] Новое соединение от %s", safeConn.RemoteAddr())

	if err := safeConn.WriteJSON(NewInfoMessage("Connected to cloth-sim server")); err != nil {
		s.logger.Printf("[WSServer] Ошибка отправки приветствия: %v", err)
		return
	}
	if err := safeConn.WriteJSON(NewConfigMessage(s.sim.Params())); err != nil {
		s.logger.Printf("[WSServer] Ошибка отправки конфигурации: %v", err)
		return
	}

	// Клиент получает кадры только после приветствия и конфигурации
	s.addClient(safeConn)

	stopPing := make(chan struct{})
	defer close(stopPing)
	if s.pingInterval > 0 {
		go s.startPing(safeConn, stopPing)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("[WSServer] Ошибка соединения: %v", err)
			}
			break
		}

		message, err := ParseMessage(data)
		if err != nil {
			s.logger.Printf("[WSServer] Ошибка разбора сообщения: %v", err)
			continue
		}

		var messageType string
		switch msg := message.(type) {
		case *CommandMessage:
			messageType = msg.Type
		case *PingMessage:
			messageType = msg.Type
		case *PongMessage:
			messageType = msg.Type
		default:
			s.logger.Printf("[WSServer] Неожиданный тип сообщения от клиента: %T", message)
			continue
		}

		if handler, ok := s.handlers[messageType]; ok {
			if err := handler(safeConn, message); err != nil {
				s.logger.Printf("[WSServer] Ошибка обработки %s: %v", messageType, err)
			}
		} else {
			s.logger.Printf("[WSServer] Нет обработчика для типа: %s", messageType)
		}
	}

	s.logger.Printf("[WSServer] Соединение закрыто: %s", safeConn.RemoteAddr())
}

// BroadcastFrame отправляет кадр всем клиентам
func (s *WSServer) BroadcastFrame(frame simulation.FrameResult) error {
	s.broadcast(NewFrameMessage(frame))
	return nil
}

// BroadcastConfig отправляет текущие параметры всем клиентам
func (s *WSServer) BroadcastConfig() {
	s.broadcast(NewConfigMessage(s.sim.Params()))
}

// ClientCount возвращает количество подключенных клиентов
func (s *WSServer) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	return len(s.clients)
}

func (s *WSServer) broadcast(message interface{}) {
	s.clientsMu.RLock()
	clients := make([]*SafeWriter, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsMu.RUnlock()

	for _, client := range clients {
		if err := client.WriteJSON(message); err != nil {
			s.logger.Printf("[WSServer] Ошибка отправки клиенту %s: %v", client.RemoteAddr(), err)
			// Соединение закроется в цикле чтения
			s.removeClient(client)
			client.Close()
		}
	}
}

func (s *WSServer) addClient(conn *SafeWriter) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	s.clients[conn] = struct{}{}
}

func (s *WSServer) removeClient(conn *SafeWriter) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	delete(s.clients, conn)
}
