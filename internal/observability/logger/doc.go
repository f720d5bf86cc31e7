// Package logger provides a singleton Zap logger with context-based scoping.
//
// Initialization (once, in main):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,   // "dev" or "prod"
//	    Level: cfg.App.LogLevel,
//	})
//	defer logger.Sync()
//
// In controllers/services (with context):
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("indieauth.token"))
//	log.Info("code exchanged", logger.ClientID(clientID))
//
// Without a context the singleton is used directly via logger.L().
package logger
