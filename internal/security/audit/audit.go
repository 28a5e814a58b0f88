package audit

import (
	"log/slog"
	"time"
)

// Action identifies an audited operation
type Action string

const (
	ActionOutfitCreate Action = "outfit_create"
	ActionOutfitUpdate Action = "outfit_update"
	ActionOutfitDelete Action = "outfit_delete"
	ActionRegister     Action = "register"
	ActionLogin        Action = "login"
	ActionImport       Action = "catalog_import"
	ActionAssign       Action = "assign_clothing"
	ActionReset        Action = "reset"
	ActionDenied       Action = "access_denied"
)

// Logger writes structured audit records for mutating operations
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

// Log records one audited action performed by the named user
func (al *Logger) Log(username string, action Action, details string) {
	al.logger.Info("audit",
		slog.String("action", string(action)),
		slog.String("username", username),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

// LogDenied records a rejected attempt to perform a restricted action
func (al *Logger) LogDenied(username string, reason string) {
	al.Log(username, ActionDenied, reason)
}
