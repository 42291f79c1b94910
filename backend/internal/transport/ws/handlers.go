package ws

import (
	"encoding/json"
	"fmt"
	"time"
)

// handleCmd обрабатывает команды управления симуляцией
func (s *WSServer) handleCmd(conn *SafeWriter, message interface{}) error {
	cmdMsg, ok := message.(*CommandMessage)
	if !ok {
		return ErrInvalidMessage
	}

	err := s.executeCommand(cmdMsg)
	if err != nil {
		s.logger.Printf("[WSServer] Команда %s отклонена: %v", cmdMsg.Cmd, err)
	}

	if ackErr := conn.WriteJSON(NewAckMessage(cmdMsg.Cmd, cmdMsg.ClientTime, err)); ackErr != nil {
		return fmt.Errorf("send ack: %w", ackErr)
	}

	switch {
	case err != nil:
	case cmdMsg.Cmd == CmdGetConfig:
		return conn.WriteJSON(NewConfigMessage(s.sim.Params()))
	default:
		// Все клиенты видят новые параметры
		s.BroadcastConfig()
	}
	return nil
}

func (s *WSServer) executeCommand(cmdMsg *CommandMessage) error {
	switch cmdMsg.Cmd {
	case CmdSetFanPower:
		var data struct {
			Value *float64 `json:"value"`
		}
		if err := decodeData(cmdMsg.Data, &data); err != nil {
			return err
		}
		if data.Value == nil {
			return fmt.Errorf("%s: missing value: %w", cmdMsg.Cmd, ErrInvalidMessage)
		}
		return s.sim.SetFanPower(*data.Value)

	case CmdSetSwinging:
		var data struct {
			Value *bool `json:"value"`
		}
		if err := decodeData(cmdMsg.Data, &data); err != nil {
			return err
		}
		if data.Value == nil {
			return fmt.Errorf("%s: missing value: %w", cmdMsg.Cmd, ErrInvalidMessage)
		}
		s.sim.SetSwinging(*data.Value)
		return nil

	case CmdSetHelperVisible:
		var data struct {
			Value *bool `json:"value"`
		}
		if err := decodeData(cmdMsg.Data, &data); err != nil {
			return err
		}
		if data.Value == nil {
			return fmt.Errorf("%s: missing value: %w", cmdMsg.Cmd, ErrInvalidMessage)
		}
		s.sim.SetHelperVisible(*data.Value)
		return nil

	case CmdConfigure:
		var patch ParamsPatch
		if err := decodeData(cmdMsg.Data, &patch); err != nil {
			return err
		}
		return s.sim.Reconfigure(patch.Apply)

	case CmdGetConfig:
		return nil

	default:
		return fmt.Errorf("%q: %w", cmdMsg.Cmd, ErrUnknownCommand)
	}
}

func decodeData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty data: %w", ErrInvalidMessage)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode data: %v: %w", err, ErrInvalidMessage)
	}
	return nil
}

// handlePing обрабатывает ping-сообщения
func (s *WSServer) handlePing(conn *SafeWriter, message interface{}) error {
	pingMsg, ok := message.(*PingMessage)
	if !ok {
		return ErrInvalidMessage
	}

	return conn.WriteJSON(NewPongMessage(pingMsg.ClientTime))
}

// handlePong принимает ответ клиента на серверный пинг
func (s *WSServer) handlePong(conn *SafeWriter, message interface{}) error {
	if _, ok := message.(*PongMessage); !ok {
		return ErrInvalidMessage
	}
	return nil
}

// startPing запускает периодическую отправку пингов для проверки соединения
func (s *WSServer) startPing(conn *SafeWriter, stop <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(NewPingMessage()); err != nil {
				s.logger.Printf("[WSServer] Ошибка отправки пинга: %v", err)
				return
			}
		}
	}
}
