// Package log defines the logging facade for the accrual processing core.
//
// The core logs through the Logger interface only. Production code wires a
// zap-backed implementation (see the zap package); tests and callers that
// do not care about logging use NewNop.
package log
