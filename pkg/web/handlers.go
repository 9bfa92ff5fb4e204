package web

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-camstream/pkg/camera"
	"github.com/teslashibe/go-camstream/pkg/hub"
)

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns stream and session counters
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.currentStatus())
}

// handleGetCamera returns the sensor settings for the next session
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(s.camera.SettingsJSON())
}

// handleUpdateCamera patches sensor settings. Accepts any subset of
// setting names and an optional "preset". Changes apply at the next
// session.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON body",
		})
	}

	if err := s.camera.UpdateSettings(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("camera settings updated", "params", len(params))
	return c.JSON(s.camera.SettingsJSON())
}

// handlePresets lists presets and setting ranges
func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"presets":      camera.PresetNames(),
		"capabilities": camera.Capabilities(),
	})
}

// handleStatusWS streams status updates until the client goes away
func (s *Server) handleStatusWS(c *websocket.Conn) {
	initial, err := json.Marshal(s.currentStatus())
	if err != nil {
		s.logger.Warn("encode status failed", "error", err)
		return
	}
	hub.NewClient(s.statusHub, c, initial).Run()
}
