package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"giftexchange/internal/exchange"
	"giftexchange/internal/models"
	"giftexchange/internal/suggest"
)

// HTTPHandler holds the dependencies for the HTTP handlers: the exchange
// service, the suggestion client, and the admin settings.
type HTTPHandler struct {
	service   *exchange.Service
	suggester *suggest.Client
	adminPIN  string
	eventDate time.Time
	now       func() time.Time
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *exchange.Service, suggester *suggest.Client, adminPIN string, eventDate time.Time) *HTTPHandler {
	return &HTTPHandler{
		service:   service,
		suggester: suggester,
		adminPIN:  adminPIN,
		eventDate: eventDate,
		now:       time.Now,
	}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/session", h.GetSession)
	api.POST("/participants", h.AddParticipant)
	api.DELETE("/participants/:id", h.RemoveParticipant)
	api.POST("/generate", h.Generate)
	api.POST("/reset", h.Reset)
	api.POST("/assignments/:index/reveal", h.ToggleRevealed)
	api.GET("/assignments/:index/suggestions", h.GiftSuggestions)
	api.GET("/assignments/:index/greeting", h.Greeting)

	admin := api.Group("/admin")
	admin.Use(h.AdminPINMiddleware())
	admin.POST("/reshuffle", h.ForceReshuffle)
	admin.GET("/assignments", h.AllAssignments)
	admin.GET("/export", h.ExportAssignments)
	admin.POST("/clear", h.ClearAll)
}

// AdminPINMiddleware checks the shared admin PIN. This is an
// accidental-access deterrent, not an authentication system.
func (h *HTTPHandler) AdminPINMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Admin-Pin") != h.adminPIN {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "incorrect PIN"})
			return
		}
		c.Next()
	}
}

// assignmentView is the public projection of an assignment: the receiver is
// omitted until the giver has revealed it.
type assignmentView struct {
	Giver    models.Participant  `json:"giver"`
	Revealed bool                `json:"revealed"`
	Receiver *models.Participant `json:"receiver,omitempty"`
}

func publicViews(assignments []models.Assignment) []assignmentView {
	views := make([]assignmentView, len(assignments))
	for i, a := range assignments {
		views[i] = assignmentView{Giver: a.Giver, Revealed: a.Revealed}
		if a.Revealed {
			receiver := a.Receiver
			views[i].Receiver = &receiver
		}
	}
	return views
}

// GetSession returns the current roster, step, gate state, and the public
// view of the assignments.
func (h *HTTPHandler) GetSession(c *gin.Context) {
	roster, assignments, step := h.service.Session()

	ready, timeLeft := h.gate()
	c.JSON(http.StatusOK, gin.H{
		"step":        step,
		"roster":      roster,
		"assignments": publicViews(assignments),
		"gate": gin.H{
			"ready":    ready,
			"timeLeft": timeLeft,
		},
	})
}

// gate evaluates the event-date condition and formats the remaining time.
func (h *HTTPHandler) gate() (bool, string) {
	diff := h.eventDate.Sub(h.now())
	if diff <= 0 {
		return true, "It's Time!"
	}
	days := int(diff.Hours()) / 24
	hours := int(diff.Hours()) % 24
	minutes := int(diff.Minutes()) % 60
	return false, strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
}

type addParticipantRequest struct {
	Name              string `json:"name"`
	Wishlist          string `json:"wishlist"`
	PreferredReceiver string `json:"preferredReceiver"`
}

// AddParticipant handles registration of a new participant.
func (h *HTTPHandler) AddParticipant(c *gin.Context) {
	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, degraded, err := h.service.AddParticipant(req.Name, req.Wishlist, req.PreferredReceiver)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, withDurability(gin.H{"participant": p}, degraded))
}

// RemoveParticipant handles removal by id. Removing an unknown id succeeds
// without effect.
func (h *HTTPHandler) RemoveParticipant(c *gin.Context) {
	degraded, err := h.service.RemoveParticipant(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withDurability(gin.H{"removed": true}, degraded))
}

type generateRequest struct {
	Override bool `json:"override"`
}

// Generate runs the gated assignment generation. The override flag is the
// frontend's post-confirmation signal for drawing before the event date.
func (h *HTTPHandler) Generate(c *gin.Context) {
	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	ready, _ := h.gate()
	degraded, err := h.service.Generate(ready, req.Override)
	if err != nil {
		h.respondError(c, err)
		return
	}
	_, _, step := h.service.Session()
	c.JSON(http.StatusOK, withDurability(gin.H{"step": step}, degraded))
}

// Reset returns the session to SETUP, keeping the roster.
func (h *HTTPHandler) Reset(c *gin.Context) {
	degraded, err := h.service.Reset()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withDurability(gin.H{"step": models.StepSetup}, degraded))
}

// ToggleRevealed flips one assignment's revealed flag and returns the full
// record, receiver included.
func (h *HTTPHandler) ToggleRevealed(c *gin.Context) {
	index, ok := h.assignmentIndex(c)
	if !ok {
		return
	}
	a, degraded, err := h.service.ToggleRevealed(index)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withDurability(gin.H{"assignment": a}, degraded))
}

// GiftSuggestions returns gift ideas for the assignment's receiver. Always
// succeeds; upstream failures surface as the fallback suggestions.
func (h *HTTPHandler) GiftSuggestions(c *gin.Context) {
	index, ok := h.assignmentIndex(c)
	if !ok {
		return
	}
	a, err := h.service.Assignment(index)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ideas := h.suggester.GiftIdeas(c.Request.Context(), a.Receiver.Name, a.Receiver.Wishlist)
	c.JSON(http.StatusOK, gin.H{"ideas": ideas})
}

// Greeting returns a festive greeting for the assignment's giver.
func (h *HTTPHandler) Greeting(c *gin.Context) {
	index, ok := h.assignmentIndex(c)
	if !ok {
		return
	}
	a, err := h.service.Assignment(index)
	if err != nil {
		h.respondError(c, err)
		return
	}
	greeting := h.suggester.Greeting(c.Request.Context(), a.Giver.Name)
	c.JSON(http.StatusOK, gin.H{"greeting": greeting})
}

// ForceReshuffle regenerates the assignments from any non-SETUP step,
// bypassing the gate.
func (h *HTTPHandler) ForceReshuffle(c *gin.Context) {
	degraded, err := h.service.ForceReshuffle()
	if err != nil {
		h.respondError(c, err)
		return
	}
	_, _, step := h.service.Session()
	c.JSON(http.StatusOK, withDurability(gin.H{"step": step}, degraded))
}

// AllAssignments returns the full assignment list, receivers included.
func (h *HTTPHandler) AllAssignments(c *gin.Context) {
	_, assignments, _ := h.service.Session()
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

// ExportAssignments renders the assignment list as plain text, one line
// per match, in generation order.
func (h *HTTPHandler) ExportAssignments(c *gin.Context) {
	c.String(http.StatusOK, h.service.ExportText())
}

// ClearAll drops the persisted snapshot and empties the session.
func (h *HTTPHandler) ClearAll(c *gin.Context) {
	if err := h.service.ClearAll(); err != nil {
		logger.Warningf("Clear persisted state failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear persisted state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": models.StepSetup})
}

// assignmentIndex parses the :index route parameter.
func (h *HTTPHandler) assignmentIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment index"})
		return 0, false
	}
	return index, true
}

// respondError maps the service error taxonomy onto HTTP statuses.
func (h *HTTPHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, exchange.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, exchange.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Errorf("Unexpected handler error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// withDurability annotates a response when the snapshot write failed and
// the change is in memory only.
func withDurability(body gin.H, degraded bool) gin.H {
	if degraded {
		body["durability"] = "degraded"
	}
	return body
}
