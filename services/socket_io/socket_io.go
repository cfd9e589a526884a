package socket_io

import (
	"Nhauzo/middleware"
	"Nhauzo/services/room"
	"Nhauzo/services/socket_io/handlers"
	socketio_types "Nhauzo/services/socket_io/types"
	socketio_utils "Nhauzo/services/socket_io/utils"
	"time"

	"github.com/gin-gonic/gin"
	eio_log "github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"

	log "github.com/sirupsen/logrus"
)

type MySocketServer socketio_types.SocketServer

// Start mounts the socket.io endpoint on router. Clients authenticate with
// the player token returned by the HTTP API.
func (sio *MySocketServer) Start(router *gin.Engine, hub *room.Hub, tokens *middleware.TokenManager, debug bool) {
	eio_log.DEBUG = debug
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)

		claims, ok := socketio_utils.VerifyPlayerConnection(client, tokens)
		if !ok {
			client.Disconnect(true)
			return
		}

		handlers.HandleConnection(hub, client, (*socketio_types.SocketServer)(sio), handlers.Player{
			RoomID:   claims.RoomID,
			PlayerID: claims.PlayerID,
		})
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	log.Info("Socket server started")
}

// Close disconnects every client
func (sio *MySocketServer) Close() {
	if sio.Sio_server != nil {
		sio.Sio_server.Close(nil)
	}
}
