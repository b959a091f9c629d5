// internal/transport/http/handler/devices.go
package handler

import (
	"context"
	"net/http"

	"notification-service/internal/models"
)

// DeviceService manages push device tokens.
type DeviceService interface {
	RegisterDevice(ctx context.Context, userID, token, deviceType string) (*models.UserDevice, error)
	DeactivateDevice(ctx context.Context, userID, token string) error
}

// DeviceHandler handles /api/devices.
type DeviceHandler struct {
	svc DeviceService
}

func NewDeviceHandler(svc DeviceService) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

type registerDeviceRequest struct {
	UserID      string `json:"user_id"`
	DeviceToken string `json:"device_token"`
	DeviceType  string `json:"device_type"`
}

// Register upserts a device token; re-registering reactivates it.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if !readValidated(w, r, registerDeviceSchema, &req) {
		return
	}

	device, err := h.svc.RegisterDevice(r.Context(), req.UserID, req.DeviceToken, req.DeviceType)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"device": device})
}

type deactivateDeviceRequest struct {
	UserID      string `json:"user_id"`
	DeviceToken string `json:"device_token"`
}

// Deactivate soft-deletes a device token.
func (h *DeviceHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	var req deactivateDeviceRequest
	if !readValidated(w, r, deactivateDeviceSchema, &req) {
		return
	}

	if err := h.svc.DeactivateDevice(r.Context(), req.UserID, req.DeviceToken); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "device deactivated"})
}
