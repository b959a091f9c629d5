// internal/transport/http/handler/schemas.go
package handler

import "notification-service/internal/common/validation"

// Request schemas. Bounds mirror the platform contract: titles up to
// 255 characters, messages up to 1000, ids are uuids.

var createNotificationSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"user_id": {"type": "string", "format": "uuid"},
		"user_ids": {
			"type": "array",
			"items": {"type": "string", "format": "uuid"},
			"minItems": 1
		},
		"title": {"type": "string", "minLength": 1, "maxLength": 255},
		"message": {"type": "string", "minLength": 1, "maxLength": 1000},
		"type": {"enum": ["info", "success", "warning", "error", "confirm"]},
		"channels": {
			"type": "array",
			"items": {"enum": ["in_app", "email", "push", "sms"]},
			"minItems": 1
		},
		"metadata": {"type": "object"},
		"expires_at": {"type": "string", "format": "date-time"}
	},
	"required": ["title", "message", "type", "channels"],
	"oneOf": [
		{"required": ["user_id"]},
		{"required": ["user_ids"]}
	]
}`)

var updateNotificationSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"read": {"type": "boolean"},
		"status": {"enum": ["pending", "sent", "delivered", "failed", "read"]},
		"metadata": {"type": "object"}
	},
	"additionalProperties": false
}`)

var preferencesSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"email_enabled": {"type": "boolean"},
		"push_enabled": {"type": "boolean"},
		"sms_enabled": {"type": "boolean"},
		"in_app_enabled": {"type": "boolean"},
		"email_types": {"type": "array", "items": {"enum": ["info", "success", "warning", "error", "confirm"]}},
		"push_types": {"type": "array", "items": {"enum": ["info", "success", "warning", "error", "confirm"]}},
		"sms_types": {"type": "array", "items": {"enum": ["info", "success", "warning", "error", "confirm"]}},
		"quiet_hours_start": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
		"quiet_hours_end": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"}
	},
	"additionalProperties": false
}`)

var registerDeviceSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"user_id": {"type": "string", "format": "uuid"},
		"device_token": {"type": "string", "minLength": 1},
		"device_type": {"enum": ["ios", "android", "web"]}
	},
	"required": ["user_id", "device_token", "device_type"]
}`)

var deactivateDeviceSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"user_id": {"type": "string", "format": "uuid"},
		"device_token": {"type": "string", "minLength": 1}
	},
	"required": ["user_id", "device_token"]
}`)
