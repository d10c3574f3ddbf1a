package infrastructure

import (
	"strings"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLogger writes fx lifecycle events to zap. Successful wiring steps are
// logged at debug so they stay out of production output.
type FxLogger struct {
	logger *zap.Logger
}

// NewFxLogger is passed to fx.WithLogger.
func NewFxLogger(logger *zap.Logger) fxevent.Logger {
	return &FxLogger{logger: logger.Named("fx")}
}

// LogEvent implements fxevent.Logger.
func (l *FxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("OnStart hook executing", zap.String("callee", e.FunctionName), zap.String("caller", e.CallerName))
	case *fxevent.OnStartExecuted:
		l.hookDone("OnStart", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.OnStopExecuting:
		l.logger.Debug("OnStop hook executing", zap.String("callee", e.FunctionName), zap.String("caller", e.CallerName))
	case *fxevent.OnStopExecuted:
		l.hookDone("OnStop", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.Supplied:
		l.wired("supplied", e.TypeName, e.Err)
	case *fxevent.Provided:
		l.wired("provided", strings.Join(e.OutputTypeNames, ", "), e.Err)
	case *fxevent.Invoking:
		l.logger.Debug("invoking", zap.String("function", e.FunctionName))
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error("invoke failed", zap.String("function", e.FunctionName), zap.Error(e.Err))
		}
	case *fxevent.Stopping:
		l.logger.Info("received signal", zap.String("signal", strings.ToUpper(e.Signal.String())))
	case *fxevent.Stopped:
		l.outcome("stopped", e.Err)
	case *fxevent.RollingBack:
		l.logger.Error("start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		l.outcome("rolled back", e.Err)
	case *fxevent.Started:
		l.outcome("started", e.Err)
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error("custom logger initialization failed", zap.Error(e.Err))
		}
	}
}

func (l *FxLogger) hookDone(hook, callee, caller, runtime string, err error) {
	if err != nil {
		l.logger.Error(hook+" hook failed", zap.String("callee", callee), zap.String("caller", caller), zap.Error(err))
		return
	}
	l.logger.Debug(hook+" hook executed", zap.String("callee", callee), zap.String("caller", caller), zap.String("runtime", runtime))
}

func (l *FxLogger) wired(action, types string, err error) {
	if err != nil {
		l.logger.Error(action+" failed", zap.String("types", types), zap.Error(err))
		return
	}
	l.logger.Debug(action, zap.String("types", types))
}

func (l *FxLogger) outcome(action string, err error) {
	if err != nil {
		l.logger.Error(action+" with error", zap.Error(err))
		return
	}
	l.logger.Info(action)
}
