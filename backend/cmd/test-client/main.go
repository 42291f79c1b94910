package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "адрес сервера")
	frames := flag.Int("frames", 10, "сколько кадров прочитать")
	fanPower := flag.Float64("fan-power", -1, "отправить set_fan_power, если >= 0")
	swing := flag.Bool("swing", false, "включить качание головы")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Подключение к %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Ошибка подключения: %v", err)
	}
	defer conn.Close()

	log.Printf("Успешно подключен")

	send := func(cmd string, data interface{}) {
		msg := map[string]interface{}{
			"type":        "cmd",
			"cmd":         cmd,
			"client_time": time.Now().UnixMilli(),
			"data":        data,
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("Ошибка отправки %s: %v", cmd, err)
		}
	}

	if *fanPower >= 0 {
		send("set_fan_power", map[string]float64{"value": *fanPower})
	}
	if *swing {
		send("set_swinging", map[string]bool{"value": true})
	}
	if err := conn.WriteJSON(map[string]interface{}{"type": "ping", "client_time": time.Now().UnixMilli()}); err != nil {
		log.Printf("Ошибка отправки ping: %v", err)
	}

	received := 0
	for received < *frames {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Ошибка чтения сообщения: %v", err)
			break
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Ошибка разбора сообщения: %v", err)
			continue
		}

		msgType, ok := msg["type"].(string)
		if !ok {
			log.Printf("Сообщение без типа: %v", msg)
			continue
		}

		switch msgType {
		case "info":
			log.Printf("INFO: %v", msg["message"])

		case "config":
			log.Printf("CONFIG: %v", msg["params"])

		case "cmd_ack":
			log.Printf("ACK: %v %v %v", msg["cmd"], msg["status"], msg["error"])

		case "pong":
			if ct, ok := msg["client_time"].(float64); ok {
				log.Printf("PONG: rtt %d мс", time.Now().UnixMilli()-int64(ct))
			}

		case "ping":
			// Серверный пинг, отвечать не обязательно

		case "frame":
			received++
			vertices, _ := msg["vertices"].([]interface{})
			collider, _ := msg["collider"].(map[string]interface{})
			log.Printf("FRAME %v: вершин %d, коллайдер (%.3v, %.3v, %.3v), голова %.4v",
				msg["frame"], len(vertices)/3, collider["x"], collider["y"], collider["z"], msg["head_rotation"])

		default:
			log.Printf("Сообщение типа %s: %v", msgType, msg)
		}
	}

	log.Printf("Тест завершен")
}
