// SPDX-License-Identifier: GPL-3.0-only

// Package ipc implements the daemon's line-oriented control protocol over a Unix socket.
//
// Each connection carries exactly one request and one response line:
//
//	GET <key>          -> <value> | ERR Unknown key
//	SET <key> <value>  -> OK | ERR Unknown key | ERR Invalid value | ERR Rate limit exceeded
//	PERSIST            -> SAVED | ERR Save failed | ERR Rate limit exceeded
//	anything else      -> ERR Invalid command
//
// SET checks the value against the key's type and range and answers ERR Invalid value when
// it does not fit; the configuration is left unchanged. SET mode accepts any value: "manual"
// and "1" select manual mode, everything else selects auto.
//
// SET and PERSIST share a rate limiter. Requests over the rate are delayed, not dropped, so
// the last of a burst of updates always wins. ERR Rate limit exceeded is only returned when
// the delay would outlast the request's deadline.
package ipc

import (
	"context"
	"errors"
	"strings"

	"github.com/anilaras/lumos/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Request verbs.
const (
	VerbGet     = "GET"
	VerbSet     = "SET"
	VerbPersist = "PERSIST"
)

// Response lines, without the trailing newline.
const (
	ResponseOK             = "OK"
	ResponseSaved          = "SAVED"
	ResponseUnknownKey     = "ERR Unknown key"
	ResponseInvalidValue   = "ERR Invalid value"
	ResponseInvalidCommand = "ERR Invalid command"
	ResponseRateLimited    = "ERR Rate limit exceeded"
	ResponseSaveFailed     = "ERR Save failed"

	errorPrefix = "ERR "
)

const (
	// rateLimitPerSecond is the maximum number of mutating requests per second.
	rateLimitPerSecond = 20

	// rateLimitBurst is the maximum burst size for mutating requests.
	rateLimitBurst = 5
)

// Store is the configuration state the protocol reads and mutates.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Persist() error
}

// Handler answers protocol requests against a Store.
type Handler struct {
	store   Store
	limiter *rate.Limiter
}

// NewHandler creates a handler. A nil limiter selects the default of 20 mutations per second
// with a burst of 5.
func NewHandler(store Store, limiter *rate.Limiter) *Handler {
	if limiter == nil {
		limiter = rate.NewLimiter(rateLimitPerSecond, rateLimitBurst)
	}
	return &Handler{store: store, limiter: limiter}
}

// Handle returns the response line for one request. Rate-limited requests wait as long as
// needed.
func (h *Handler) Handle(request string) string {
	return h.HandleContext(context.Background(), request)
}

// HandleContext returns the response line for one request. A rate-limited request waits
// for its turn until ctx is done.
func (h *Handler) HandleContext(ctx context.Context, request string) string {
	fields := strings.Fields(request)
	if len(fields) == 0 {
		return ResponseInvalidCommand
	}

	switch {
	case fields[0] == VerbGet && len(fields) >= 2:
		value, err := h.store.Get(fields[1])
		if err != nil {
			return errorResponse(err)
		}
		return value

	case fields[0] == VerbSet && len(fields) >= 3:
		if err := h.limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Str("key", fields[1]).Msg("Rate limit exceeded for SET")
			return ResponseRateLimited
		}
		if err := h.store.Set(fields[1], fields[2]); err != nil {
			log.Debug().Err(err).Str("key", fields[1]).Str("value", fields[2]).Msg("Rejected SET request")
			return errorResponse(err)
		}
		return ResponseOK

	case fields[0] == VerbPersist:
		if err := h.limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("Rate limit exceeded for PERSIST")
			return ResponseRateLimited
		}
		if err := h.store.Persist(); err != nil {
			return ResponseSaveFailed
		}
		return ResponseSaved

	default:
		log.Debug().Str("request", request).Msg("Invalid request")
		return ResponseInvalidCommand
	}
}

func errorResponse(err error) string {
	switch {
	case errors.Is(err, config.ErrUnknownKey):
		return ResponseUnknownKey
	case errors.Is(err, config.ErrInvalidValue):
		return ResponseInvalidValue
	default:
		return ResponseInvalidCommand
	}
}

// IsError reports whether a response line is an error response.
func IsError(response string) bool {
	return strings.HasPrefix(response, errorPrefix)
}
