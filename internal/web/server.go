// Package web serves the chat page and its JSON API. Each browser gets a
// session cookie; the transcript behind it lives in memory and disappears
// on restart.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"medoryx/internal/eventbus"
	"medoryx/internal/sqlfmt"
	"medoryx/internal/tool"
	"medoryx/internal/transcript"
)

//go:embed static
var staticFS embed.FS

const sessionCookie = "medoryx_session"

// Agent produces one reply turn per question. The agent package
// satisfies this.
type Agent interface {
	Converse(ctx context.Context, sess *transcript.Session, text string) (transcript.Turn, error)
}

// Server is the HTTP front end.
type Server struct {
	echo     *echo.Echo
	agent    Agent
	store    *transcript.Store
	tools    *tool.Registry
	activity *activityLog
}

// New assembles the server. bus may be nil, in which case the activity
// feed stays empty.
func New(agent Agent, store *transcript.Store, tools *tool.Registry, bus *eventbus.Bus) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		agent:    agent,
		store:    store,
		tools:    tools,
		activity: newActivityLog(bus),
	}

	static, _ := fs.Sub(staticFS, "static")
	e.FileFS("/", "index.html", static)
	e.StaticFS("/static", static)

	e.GET("/healthz", s.handleHealth)
	e.GET("/api/tools", s.handleTools)
	e.GET("/api/transcript", s.handleTranscript)
	e.GET("/api/activity", s.handleActivity)
	e.POST("/api/chat", s.handleChat)

	return s
}

// Start listens on addr and blocks until shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply turnView `json:"reply"`
}

type errorResponse struct {
	Error string    `json:"error"`
	Reply *turnView `json:"reply,omitempty"`
}

// turnView is a transcript turn enriched with parsed result tables, so
// the page can render query output as a grid instead of raw text.
type turnView struct {
	transcript.Turn
	Invocations []invocationView `json:"invocations,omitempty"`
}

type invocationView struct {
	transcript.ToolInvocation
	Table *sqlfmt.Table `json:"table,omitempty"`
}

func viewOf(t transcript.Turn) turnView {
	v := turnView{Turn: t}
	for _, inv := range t.Invocations {
		iv := invocationView{ToolInvocation: inv}
		if !inv.IsError {
			if table, ok := sqlfmt.Parse(inv.Result); ok {
				iv.Table = table
			}
		}
		v.Invocations = append(v.Invocations, iv)
	}
	return v
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTools(c echo.Context) error {
	return c.JSON(http.StatusOK, s.tools.Describe())
}

func (s *Server) handleTranscript(c echo.Context) error {
	sess := s.store.Get(s.sessionID(c))
	turns := sess.Turns()
	views := make([]turnView, 0, len(turns))
	for _, t := range turns {
		views = append(views, viewOf(t))
	}
	return c.JSON(http.StatusOK, map[string]any{"turns": views})
}

func (s *Server) handleActivity(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"events": s.activity.Recent()})
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	sess := s.store.Get(s.sessionID(c))
	turn, err := s.agent.Converse(c.Request().Context(), sess, req.Message)
	if errors.Is(err, transcript.ErrEmptyMessage) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "message must not be empty"})
	}
	if err != nil {
		// The session already holds the error turn, hand it to the page.
		view := viewOf(turn)
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error(), Reply: &view})
	}
	return c.JSON(http.StatusOK, chatResponse{Reply: viewOf(turn)})
}

// sessionID reads the session cookie, minting one on first contact.
func (s *Server) sessionID(c echo.Context) string {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
