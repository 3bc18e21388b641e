// Package server exposes the realtime identification API over websocket.
package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"moovzmatch/app/client/rekognition"
	"moovzmatch/app/config"
	"moovzmatch/app/service/pipeline"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/samber/do"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

type Server struct {
	cfg        *config.Config
	appCtx     context.Context
	app        *fiber.App
	pipelines  *pipeline.Service
	recognizer *rekognition.Client
}

func New(di *do.Injector) (*Server, error) {
	s := &Server{
		cfg:        do.MustInvoke[*config.Config](di),
		appCtx:     do.MustInvoke[context.Context](di),
		pipelines:  do.MustInvoke[*pipeline.Service](di),
		recognizer: do.MustInvoke[*rekognition.Client](di),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/identify", websocket.New(s.handleIdentify))

	return s, nil
}

func (s *Server) Run() error {
	slog.Info("Websocket API listening", "addr", s.cfg.Server.Addr)
	return s.app.Listen(s.cfg.Server.Addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type mediaPayload struct {
	Data string `json:"data"`
}

type clientMessage struct {
	Type string `json:"type"`
	Data struct {
		SessionID string        `json:"sessionId"`
		Frame     *mediaPayload `json:"frame"`
		Audio     *mediaPayload `json:"audio"`
	} `json:"data"`
}

// handleIdentify serves one identification connection: frame messages feed
// the actor evidence, audio messages feed the transcript, and the single
// terminal result is pushed back when the pipeline decides.
func (s *Server) handleIdentify(conn *websocket.Conn) {
	connID := uuid.NewString()
	writer := newConnWriter(conn)

	slog.Info("Identification client connected", "connection", connID)

	defer func() {
		s.pipelines.Remove(connID)
		slog.Info("Identification client disconnected", "connection", connID)
	}()

	_ = writer.WriteJSON(fiber.Map{
		"type":          "connected",
		"connection_id": connID,
	})

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Websocket read failed",
					"connection", connID,
					"error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case "ping":
			_ = writer.WriteJSON(fiber.Map{
				"status":    "pong",
				"message":   "connection_alive",
				"timestamp": time.Now().Format(time.RFC3339),
			})

		case "frame":
			if msg.Data.Frame == nil || msg.Data.Frame.Data == "" {
				continue
			}
			s.handleFrame(writer, s.session(msg.Data.SessionID, connID, writer), msg.Data.Frame.Data)

		case "audio":
			if msg.Data.Audio == nil || msg.Data.Audio.Data == "" {
				continue
			}
			s.handleAudio(writer, s.session(msg.Data.SessionID, connID, writer), msg.Data.Audio.Data)

		case "":
			// not our protocol, skip

		default:
			slog.Warn("Unknown websocket message type",
				"connection", connID,
				"type", msg.Type)
		}
	}
}

// session resolves the pipeline session of a message: the client-supplied id
// when present, the connection id otherwise.
func (s *Server) session(sessionID, connID string, writer *connWriter) *pipeline.Session {
	id := sessionID
	if id == "" {
		id = connID
	}

	return s.pipelines.GetOrCreate(id, func(update pipeline.Update) {
		_ = writer.WriteJSON(update)
	})
}

func (s *Server) handleFrame(writer *connWriter, sess *pipeline.Session, frameB64 string) {
	image, err := base64.StdEncoding.DecodeString(frameB64)
	if err != nil {
		slog.Warn("Invalid frame encoding", "session", sess.ID, "error", err)
		return
	}

	celebrities, err := s.recognizer.RecognizeActors(s.appCtx, image)
	if err != nil {
		slog.Warn("Actor recognition failed", "session", sess.ID, "error", err)
		return
	}

	names := make([]string, 0, len(celebrities))
	for _, celebrity := range celebrities {
		names = append(names, strings.ToLower(celebrity.Name))
	}

	sess.AddActors(names)
	s.ensureRunning(writer, sess)
}

func (s *Server) handleAudio(writer *connWriter, sess *pipeline.Session, audioB64 string) {
	chunk, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		slog.Warn("Invalid audio encoding", "session", sess.ID, "error", err)
		return
	}

	sess.PushAudio(chunk)
	s.ensureRunning(writer, sess)
}

// ensureRunning starts the identification run on first evidence and forwards
// its terminal result. Run refuses reentry, so at most one goroutine per
// session gets past the nil check.
func (s *Server) ensureRunning(writer *connWriter, sess *pipeline.Session) {
	go func() {
		result := sess.Run(s.appCtx)
		if result == nil {
			return
		}

		if err := writer.WriteJSON(result); err != nil {
			slog.Warn("Failed to deliver identification result",
				"session", sess.ID,
				"error", err)
		}
	}()
}
