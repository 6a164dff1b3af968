package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	hzServer "github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	hzConsts "github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omnigate/omnigate/internal/access"
	"github.com/omnigate/omnigate/internal/bridge"
	"github.com/omnigate/omnigate/internal/canonical"
	"github.com/omnigate/omnigate/internal/channel"
	"github.com/omnigate/omnigate/internal/channel/discord"
	"github.com/omnigate/omnigate/internal/channel/whatsapp"
	"github.com/omnigate/omnigate/internal/config"
	"github.com/omnigate/omnigate/internal/consts"
	"github.com/omnigate/omnigate/internal/lifecycle"
	"github.com/omnigate/omnigate/internal/pkg/logs"
	prom "github.com/omnigate/omnigate/internal/pkg/prometheus"
	pkgUtils "github.com/omnigate/omnigate/internal/pkg/utils"
	"github.com/omnigate/omnigate/internal/ratelimit"
)

// Gateway owns the whole runtime: channel handlers, their lifecycle
// managers and command sockets, the admission/rate-limit gates, the message
// queue and the HTTP surface.
type Gateway struct {
	rules    *access.Cache
	limiter  *ratelimit.Limiter
	security *security
	router   Router
	msgQueue *MessageQueue

	httpServer *hzServer.Hertz

	mu       sync.Mutex
	managers map[string]*lifecycle.Manager
	sockets  map[string]*bridge.Server
	webhooks map[string]*whatsapp.WhatsApp // instance name -> handler

	runCtx    context.Context
	runCancel context.CancelFunc
	stopOnce  sync.Once
}

func NewGateway(cfg *config.Config) (*Gateway, error) {
	hlog.SetLogger(logs.NewHlogLogger(logs.DefaultLogger()))

	bind := cfg.Gateway.Bind
	if bind == "" {
		bind = "0.0.0.0:8080"
	}
	timeout := time.Duration(cfg.Gateway.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	rulesFile := cfg.Access.RulesFile
	if rulesFile == "" {
		rulesFile = consts.DefaultRulesPath()
	}
	rules := access.NewCache(access.NewFileStore(rulesFile))

	limiter := ratelimit.NewLimiter(ratelimit.Options{
		MaxRequests:     cfg.RateLimit.MaxRequests,
		Window:          time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		CleanupInterval: time.Duration(cfg.RateLimit.CleanupInterval) * time.Second,
	})

	router, err := newRouter(cfg.Router)
	if err != nil {
		return nil, err
	}

	gw := &Gateway{
		rules:    rules,
		limiter:  limiter,
		security: &security{rules: rules, limiter: limiter},
		router:   router,
		msgQueue: newMessageQueue(QueueOptions{
			LaneBuffer:    10,
			MaxConcurrent: cfg.Gateway.MaxConcurrentSessions,
		}),
		httpServer: hzServer.Default(
			hzServer.WithHostPorts(bind),
			hzServer.WithReadTimeout(timeout),
			hzServer.WithWriteTimeout(timeout),
			hzServer.WithExitWaitTime(5*time.Second),
		),
		managers: make(map[string]*lifecycle.Manager),
		sockets:  make(map[string]*bridge.Server),
		webhooks: make(map[string]*whatsapp.WhatsApp),
	}
	return gw, nil
}

func (gw *Gateway) Start(ctx context.Context) error {
	gw.runCtx, gw.runCancel = context.WithCancel(ctx)

	cfg, err := config.Get()
	if err != nil {
		return err
	}

	if err := gw.msgQueue.Init(gw.runCtx, gw.processMessage); err != nil {
		return fmt.Errorf("init msg queue: %w", err)
	}
	gw.initHTTPServer()

	if err := gw.initChannels(gw.runCtx, cfg.Channels); err != nil {
		return fmt.Errorf("init channels: %w", err)
	}
	if err := gw.runMaintenance(gw.runCtx, cfg.Gateway.MaintenanceSchedule); err != nil {
		return fmt.Errorf("start maintenance: %w", err)
	}

	go gw.httpServer.Spin()

	return nil
}

func (gw *Gateway) Stop(ctx context.Context) error {
	gw.stopOnce.Do(func() {
		if gw.runCancel != nil {
			gw.runCancel()
		}

		gw.mu.Lock()
		managers := gw.managers
		sockets := gw.sockets
		gw.mu.Unlock()

		// Sockets close before connections so in-flight CLI calls fail fast
		// instead of hitting half-stopped handlers.
		for id, srv := range sockets {
			if err := srv.Stop(ctx); err != nil {
				logs.CtxWarn(ctx, "[gateway] stop bridge socket %s error: %v", id, err)
			}
		}
		for id, mgr := range managers {
			if err := mgr.Stop(ctx); err != nil {
				logs.CtxWarn(ctx, "[gateway] stop channel %s error: %v", id, err)
			}
			metricConnected.DeleteLabelValues(labelsFor(id))
		}
		for _, h := range channel.List() {
			channel.Unregister(h.ID())
		}

		if err := gw.httpServer.Shutdown(ctx); err != nil {
			logs.CtxWarn(ctx, "[gateway] shutdown http server error: %v", err)
		}

		logs.CtxInfo(ctx, "[gateway] all resources stopped")
	})
	return nil
}

func (gw *Gateway) initChannels(ctx context.Context, channels map[string]config.ChannelConfig) error {
	for id, cfg := range channels {
		cfg.ID = id
		if !cfg.Enabled {
			logs.CtxInfo(ctx, "[gateway] channel #%s is disabled, skipping", id)
			continue
		}

		if err := gw.startChannel(ctx, id, cfg); err != nil {
			logs.CtxError(ctx, "[gateway] start channel #%s error: %v", id, err)
			return fmt.Errorf("start channel %s: %w", id, err)
		}
	}
	return nil
}

func (gw *Gateway) startChannel(ctx context.Context, id string, cfg config.ChannelConfig) error {
	handler, connector, err := gw.newHandler(id, cfg)
	if err != nil {
		return err
	}

	if err := handler.RegisterMessageHandler(gw.enqueueMsg); err != nil {
		return fmt.Errorf("register message handler: %w", err)
	}
	if err := channel.Register(handler); err != nil {
		return fmt.Errorf("register channel: %w", err)
	}

	mgr := lifecycle.NewManager(
		handler.Instance(),
		connector,
		cfg.Connection.MaxRetries,
		cfg.Connection.FailureThreshold,
		time.Duration(cfg.Connection.RecoveryTimeout)*time.Second,
	)

	if dc, ok := handler.(*discord.Discord); ok {
		dc.SetLifecycleHooks(mgr.NotifyDisconnect, mgr.Heartbeat)
	}

	backend := &instanceBackend{handler: handler, manager: mgr, security: gw.security}
	socket, err := bridge.NewServer(string(handler.Type()), handler.Instance(), backend)
	if err != nil {
		return fmt.Errorf("bridge socket: %w", err)
	}
	socket.Start(ctx)
	mgr.OnRelease(func() {
		if err := socket.Stop(context.Background()); err != nil {
			logs.Warn("[gateway] release bridge socket %s: %v", id, err)
		}
	})

	gw.mu.Lock()
	gw.managers[id] = mgr
	gw.sockets[id] = socket
	if wa, ok := handler.(*whatsapp.WhatsApp); ok {
		gw.webhooks[handler.Instance()] = wa
	}
	gw.mu.Unlock()

	go func() {
		logs.CtxInfo(ctx, "[gateway] starting channel #%s (%s)", id, handler.Type())
		gw.watchConnection(ctx, id, handler, mgr)
		mgr.Run(ctx)
	}()
	return nil
}

func (gw *Gateway) newHandler(id string, cfg config.ChannelConfig) (channel.Handler, lifecycle.Connector, error) {
	switch channel.Type(strings.ToLower(strings.TrimSpace(cfg.Type))) {
	case channel.WhatsApp:
		h, err := whatsapp.NewHandler(id, &cfg)
		if err != nil {
			return nil, nil, err
		}
		return h, h, nil
	case channel.Discord:
		h, err := discord.NewHandler(id, &cfg)
		if err != nil {
			return nil, nil, err
		}
		return h, h, nil
	default:
		return nil, nil, fmt.Errorf("unsupported channel type: %s", cfg.Type)
	}
}

// watchConnection mirrors the manager state into the connected gauge.
func (gw *Gateway) watchConnection(ctx context.Context, id string, h channel.Handler, mgr *lifecycle.Manager) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				v := 0.0
				if mgr.State() == lifecycle.StateConnected {
					v = 1.0
				}
				metricConnected.WithLabelValues(string(h.Type()), h.Instance()).Set(v)
			}
		}
	}()
}

func labelsFor(id string) (string, string) {
	h, err := channel.Get(id)
	if err != nil {
		return "", id
	}
	return string(h.Type()), h.Instance()
}

func (gw *Gateway) initHTTPServer() {
	gw.httpServer.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(hzConsts.StatusOK, utils.H{"status": "ok"})
	})

	metricsHandler := promhttp.HandlerFor(prom.GetRegistry(), promhttp.HandlerOpts{})
	gw.httpServer.GET("/metrics", func(ctx context.Context, c *app.RequestContext) {
		req, err := adaptor.GetCompatRequest(&c.Request)
		if err != nil {
			c.AbortWithStatus(hzConsts.StatusInternalServerError)
			return
		}
		metricsHandler.ServeHTTP(adaptor.GetCompatResponseWriter(&c.Response), req)
	})

	gw.httpServer.POST("/webhook/whatsapp/:instance", gw.handleWhatsAppWebhook)
}

func (gw *Gateway) handleWhatsAppWebhook(ctx context.Context, c *app.RequestContext) {
	instance := c.Param("instance")

	gw.mu.Lock()
	wa := gw.webhooks[instance]
	gw.mu.Unlock()
	if wa == nil {
		c.JSON(hzConsts.StatusNotFound, utils.H{"error": "unknown instance"})
		return
	}

	var payload map[string]any
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(hzConsts.StatusBadRequest, utils.H{"error": "invalid payload"})
		return
	}

	if err := wa.HandleWebhook(ctx, payload); err != nil {
		logs.CtxError(ctx, "[gateway] whatsapp webhook: %v", err)
		c.JSON(hzConsts.StatusInternalServerError, utils.H{"error": "webhook processing failed"})
		return
	}
	c.JSON(hzConsts.StatusOK, utils.H{"status": "ok"})
}

func (gw *Gateway) enqueueMsg(ctx context.Context, msg *canonical.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if msg.IsFromMe {
		return nil
	}

	metricMessages.WithLabelValues(msg.ChannelType, "inbound").Inc()

	if !gw.security.admitInbound(ctx, msg) {
		return nil
	}
	return gw.msgQueue.Enqueue(ctx, msg)
}

func (gw *Gateway) processMessage(ctx context.Context, msg *canonical.Message) error {
	if msg == nil {
		return fmt.Errorf("message cannot be nil")
	}

	ctx = logs.SetLogID(ctx, logs.NewLogID())
	ctx = context.WithValue(ctx, consts.CtxKeyChannelID, msg.ChannelType)
	ctx = context.WithValue(ctx, consts.CtxKeyInstance, msg.Instance)
	ctx = context.WithValue(ctx, consts.CtxKeyChatID, msg.ChatID)

	logs.CtxDebug(ctx, "[msg] -> (%s#%s) %s", msg.ChannelType, msg.SenderID, pkgUtils.Truncate80(msg.Text))

	reply, err := gw.router.Route(ctx, msg)
	if err != nil {
		return fmt.Errorf("route message: %w", err)
	}
	if reply == "" {
		return nil
	}

	h, err := gw.handlerForInstance(msg.ChannelType, msg.Instance)
	if err != nil {
		return err
	}

	if !gw.security.admitOutbound(ctx, msg.ChannelType, msg.ChatID) {
		return nil
	}

	res := h.SendText(ctx, msg.ChatID, reply)
	if !res.Success {
		metricSendErrors.WithLabelValues(msg.ChannelType).Inc()
		return fmt.Errorf("send reply via %s/%s failed: %s", msg.ChannelType, msg.Instance, res.Error)
	}
	metricMessages.WithLabelValues(msg.ChannelType, "outbound").Inc()
	return nil
}

func (gw *Gateway) handlerForInstance(channelType, instance string) (channel.Handler, error) {
	for _, h := range channel.List() {
		if string(h.Type()) == channelType && h.Instance() == instance {
			return h, nil
		}
	}
	return nil, fmt.Errorf("no handler for %s/%s", channelType, instance)
}
