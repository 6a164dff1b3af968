package bridge

import (
	"context"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	hzServer "github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/omnigate/omnigate/internal/pkg/logs"
)

// Backend is what a channel instance exposes over its command socket.
// The gateway wires one per running instance.
type Backend interface {
	Instance() string
	Send(ctx context.Context, channelID, text string) error
	Health(ctx context.Context) HealthResponse
	Status(ctx context.Context) StatusResponse
}

// Server serves the per-instance command API on a unix socket so CLI
// invocations in other processes can reach a running gateway.
type Server struct {
	path    string
	backend Backend
	hz      *hzServer.Hertz
}

func NewServer(channelType, instance string, backend Backend) (*Server, error) {
	path := SocketPath(channelType, instance)
	if err := prepareSocket(path); err != nil {
		return nil, err
	}

	hz := hzServer.New(
		hzServer.WithNetwork("unix"),
		hzServer.WithHostPorts(path),
		hzServer.WithExitWaitTime(time.Second),
		hzServer.WithDisablePrintRoute(true),
	)

	s := &Server{path: path, backend: backend, hz: hz}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.hz.POST("/send", s.handleSend)
	s.hz.GET("/health", s.handleHealth)
	s.hz.GET("/status", s.handleStatus)
}

// Start serves in the background until Stop is called.
func (s *Server) Start(ctx context.Context) {
	go func() {
		logs.CtxInfo(ctx, "[bridge] instance %s listening on %s", s.backend.Instance(), s.path)
		s.hz.Spin()
	}()
	go func() {
		// The socket appears once the listener binds; tighten it so only
		// the owning user can issue commands.
		if err := restrictSocket(s.path); err != nil {
			logs.CtxWarn(ctx, "[bridge] restrict socket %s: %v", s.path, err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	err := s.hz.Shutdown(ctx)
	if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
		logs.CtxWarn(ctx, "[bridge] remove socket %s: %v", s.path, rmErr)
	}
	return err
}

func (s *Server) handleSend(ctx context.Context, c *app.RequestContext) {
	var req SendRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(consts.StatusBadRequest, SendResponse{
			Instance: s.backend.Instance(),
			Error:    "invalid request body",
		})
		return
	}
	if req.ChannelID == "" || req.Text == "" {
		c.JSON(consts.StatusBadRequest, SendResponse{
			Instance:  s.backend.Instance(),
			ChannelID: req.ChannelID,
			Error:     "channel_id and text are required",
		})
		return
	}

	resp := SendResponse{Instance: s.backend.Instance(), ChannelID: req.ChannelID}
	if err := s.backend.Send(ctx, req.ChannelID, req.Text); err != nil {
		resp.Error = err.Error()
		c.JSON(consts.StatusInternalServerError, resp)
		return
	}
	resp.Success = true
	c.JSON(consts.StatusOK, resp)
}

func (s *Server) handleHealth(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, s.backend.Health(ctx))
}

func (s *Server) handleStatus(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, s.backend.Status(ctx))
}
