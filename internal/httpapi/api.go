// Package httpapi exposes the session actions as plain request/response
// operations. Everything the push channel announces can also be fetched from
// the status snapshot here, which is what clients poll to reconcile.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/kiliankoe/faceoff/internal/game"
)

type Server struct {
	ctrl      *game.Controller
	publicURL string
}

func New(ctrl *game.Controller, publicURL string) *Server {
	return &Server{ctrl: ctrl, publicURL: publicURL}
}

func (s *Server) Register(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.POST("/session", s.create)
		api.GET("/session/:code", s.status)
		api.GET("/session/:code/qr", s.joinQR)
		api.POST("/session/:code/join", s.join)
		api.POST("/session/:code/start", s.start)
		api.POST("/session/:code/vote", s.vote)
		api.POST("/session/:code/reveal", s.reveal)
		api.POST("/session/:code/next", s.next)
	}
}

type createRequest struct {
	RoleAName   string `json:"role_a_name"`
	RoleBName   string `json:"role_b_name"`
	TotalRounds int    `json:"total_rounds"`
	Theme       string `json:"theme"`
}

func (s *Server) create(c *gin.Context) {
	var req createRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, game.ErrValidation)
		return
	}
	sess, err := s.ctrl.Create(c.Request.Context(), req.RoleAName, req.RoleBName, req.TotalRounds, req.Theme)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_code": sess.Code,
		"admin_pin":    sess.AdminPIN,
		"status":       sess.Status,
	})
}

type joinRequest struct {
	Name string `json:"name"`
}

func (s *Server) join(c *gin.Context) {
	var req joinRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, game.ErrValidation)
		return
	}
	res, err := s.ctrl.Join(c.Request.Context(), c.Param("code"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"player_id": res.Player.ID,
		"is_admin":  res.Player.IsAdmin,
		"players":   res.Players,
		"session":   res.Session,
	})
}

type startRequest struct {
	AdminPIN    string  `json:"admin_pin"`
	TotalRounds int     `json:"total_rounds"`
	Intensity   float64 `json:"intensity"`
}

func (s *Server) start(c *gin.Context) {
	var req startRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, game.ErrValidation)
		return
	}
	res, err := s.ctrl.Start(c.Request.Context(), c.Param("code"), req.AdminPIN, req.TotalRounds, req.Intensity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        res.Session.Status,
		"current_round": res.Session.CurrentRound,
		"scenarios":     res.Scenarios,
	})
}

type voteRequest struct {
	Name   string      `json:"name"`
	Round  int         `json:"round"`
	Choice game.Choice `json:"choice"`
}

func (s *Server) vote(c *gin.Context) {
	var req voteRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, game.ErrValidation)
		return
	}
	tally, err := s.ctrl.Vote(c.Request.Context(), c.Param("code"), req.Name, req.Round, req.Choice)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tally": tally})
}

type revealRequest struct {
	AdminPIN string `json:"admin_pin"`
	Round    int    `json:"round"`
}

func (s *Server) reveal(c *gin.Context) {
	var req revealRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, game.ErrValidation)
		return
	}
	res, err := s.ctrl.Reveal(c.Request.Context(), c.Param("code"), req.AdminPIN, req.Round)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

type nextRequest struct {
	AdminPIN string `json:"admin_pin"`
}

func (s *Server) next(c *gin.Context) {
	var req nextRequest
	if err := c.BindJSON(&req); err != nil {
		writeError(c, game.ErrValidation)
		return
	}
	res, err := s.ctrl.NextRound(c.Request.Context(), c.Param("code"), req.AdminPIN)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) status(c *gin.Context) {
	snap, err := s.ctrl.Snapshot(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// joinQR renders a QR code for the session's join link so guests can scan in
// from the host's screen.
func (s *Server) joinQR(c *gin.Context) {
	code := c.Param("code")
	if _, err := s.ctrl.Snapshot(c.Request.Context(), code); err != nil {
		writeError(c, err)
		return
	}
	png, err := qrcode.Encode(s.publicURL+"/join/"+code, qrcode.Medium, 256)
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("qr encode failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrScenarioNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrWrongPIN):
		status = http.StatusUnauthorized
	case errors.Is(err, game.ErrNameTaken), errors.Is(err, game.ErrCodeConflict):
		status = http.StatusConflict
	case errors.Is(err, game.ErrInvalidState),
		errors.Is(err, game.ErrRoundMismatch),
		errors.Is(err, game.ErrScenarioInactive),
		errors.Is(err, game.ErrValidation):
		status = http.StatusBadRequest
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("internal error")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
