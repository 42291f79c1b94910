package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterPhysics "cloth-sim/backend/internal/adapter/out/physics"
	"cloth-sim/backend/internal/config"
	"cloth-sim/backend/internal/core/domain/service"
	portPhysics "cloth-sim/backend/internal/core/port/out/physics"
)

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (c *testClient) read() map[string]interface{} {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return msg
}

func (c *testClient) command(cmd string, data interface{}) {
	c.t.Helper()

	msg, err := NewCommandMessage(cmd, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func newTestServer(t *testing.T) (*WSServer, *service.FrameDriver, *testClient, func()) {
	t.Helper()

	params := config.DefaultParams()
	params.Nx, params.Ny = 3, 3
	factory := func() portPhysics.World { return adapterPhysics.NewFrozenWorld() }
	driver, err := service.NewFrameDriver(params, factory, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	wsServer := NewWSServer(driver, log.New(io.Discard, "", 0))
	wsServer.SetPingInterval(0)

	server := httptest.NewServer(http.HandlerFunc(wsServer.HandleWS))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	client := &testClient{t: t, conn: conn}

	info := client.read()
	assert.Equal(t, MessageTypeInfo, info["type"])
	cfg := client.read()
	require.Equal(t, MessageTypeConfig, cfg["type"])
	assert.Equal(t, float64(3), cfg["params"].(map[string]interface{})["nx"])

	require.Eventually(t, func() bool { return wsServer.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	return wsServer, driver, client, func() {
		conn.Close()
		server.Close()
	}
}

func TestWSServer_PingPong(t *testing.T) {
	_, _, client, cleanup := newTestServer(t)
	defer cleanup()

	require.NoError(t, client.conn.WriteJSON(&PingMessage{Type: MessageTypePing, ClientTime: 777}))
	pong := client.read()
	assert.Equal(t, MessageTypePong, pong["type"])
	assert.Equal(t, float64(777), pong["client_time"])
}

func TestWSServer_SetFanPowerAndSwinging(t *testing.T) {
	_, driver, client, cleanup := newTestServer(t)
	defer cleanup()

	client.command(CmdSetFanPower, map[string]float64{"value": 0.3})
	ack := client.read()
	assert.Equal(t, MessageTypeAck, ack["type"])
	assert.Equal(t, "ok", ack["status"])
	cfg := client.read()
	assert.Equal(t, MessageTypeConfig, cfg["type"])
	assert.Equal(t, 0.3, cfg["params"].(map[string]interface{})["fan_power"])
	assert.Equal(t, 0.3, driver.Params().FanPower)

	client.command(CmdSetSwinging, map[string]bool{"value": true})
	assert.Equal(t, "ok", client.read()["status"])
	client.read()
	assert.True(t, driver.Params().IsSwinging)
}

func TestWSServer_SetHelperVisibleKeepsFrames(t *testing.T) {
	_, driver, client, cleanup := newTestServer(t)
	defer cleanup()

	_, err := driver.AdvanceFrame()
	require.NoError(t, err)

	client.command(CmdSetHelperVisible, map[string]bool{"value": true})
	assert.Equal(t, "ok", client.read()["status"])
	cfg := client.read()
	assert.Equal(t, true, cfg["params"].(map[string]interface{})["helper_visible"])

	assert.True(t, driver.Params().HelperVisible)
	assert.Equal(t, uint64(1), driver.Frame(), "visibility change must not rebuild")
}

func TestWSServer_ConfigurePatchKeepsEarlierCommands(t *testing.T) {
	_, driver, client, cleanup := newTestServer(t)
	defer cleanup()

	client.command(CmdSetFanPower, map[string]float64{"value": 0.4})
	require.Equal(t, "ok", client.read()["status"])
	client.read()

	client.command(CmdConfigure, map[string]int{"nx": 2})
	require.Equal(t, "ok", client.read()["status"])
	client.read()

	p := driver.Params()
	assert.Equal(t, 2, p.Nx)
	assert.Equal(t, 0.4, p.FanPower)
}

func TestWSServer_RejectedCommands(t *testing.T) {
	_, driver, client, cleanup := newTestServer(t)
	defer cleanup()
	before := driver.Params()

	tests := []struct {
		name string
		cmd  string
		data interface{}
	}{
		{"missing value", CmdSetFanPower, map[string]string{}},
		{"wrong type", CmdSetSwinging, map[string]string{"value": "yes"}},
		{"helper without value", CmdSetHelperVisible, map[string]string{}},
		{"unknown", "explode", nil},
		{"invalid params", CmdConfigure, map[string]int{"nx": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client.command(tt.cmd, tt.data)
			ack := client.read()
			assert.Equal(t, MessageTypeAck, ack["type"])
			assert.Equal(t, "error", ack["status"])
			assert.NotEmpty(t, ack["error"])
		})
	}

	assert.Equal(t, before, driver.Params())
}

func TestWSServer_ConfigureRebuilds(t *testing.T) {
	wsServer, driver, client, cleanup := newTestServer(t)
	defer cleanup()

	_, err := driver.AdvanceFrame()
	require.NoError(t, err)

	client.command(CmdConfigure, map[string]interface{}{"nx": 5, "ny": 2})
	assert.Equal(t, "ok", client.read()["status"])
	cfg := client.read()
	params := cfg["params"].(map[string]interface{})
	assert.Equal(t, float64(5), params["nx"])
	assert.Equal(t, float64(2), params["ny"])
	assert.Equal(t, uint64(0), driver.Frame())

	frame, err := driver.AdvanceFrame()
	require.NoError(t, err)
	require.NoError(t, wsServer.BroadcastFrame(frame))

	msg := client.read()
	require.Equal(t, MessageTypeFrame, msg["type"])
	assert.Len(t, msg["vertices"], 6*3*3)
	assert.Equal(t, float64(1), msg["frame"])
}

func TestWSServer_GetConfig(t *testing.T) {
	_, _, client, cleanup := newTestServer(t)
	defer cleanup()

	client.command(CmdGetConfig, nil)
	assert.Equal(t, "ok", client.read()["status"])

	raw := client.read()
	encoded, err := json.Marshal(raw["params"])
	require.NoError(t, err)
	var params ParamsMessage
	require.NoError(t, json.Unmarshal(encoded, &params))
	assert.Equal(t, 3, params.Nx)
	assert.InDelta(t, 1.0/60.0, params.TimeStep, 1e-12)
}

func TestWSServer_DisconnectRemovesClient(t *testing.T) {
	wsServer, _, client, cleanup := newTestServer(t)
	defer cleanup()

	require.NoError(t, client.conn.Close())
	require.Eventually(t, func() bool { return wsServer.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}
