package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"checksheet-backend/internal/domain/identity"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"

	// lockTTL bounds how long a crashed handler blocks retries of its request.
	lockTTL = 60 * time.Second
	// maxClockSkew is the accepted distance between Ax-Request-At and now.
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

// replay is what the guard keeps per request: a lock while the handler runs,
// then the response to hand back to repeats.
type replay struct {
	Running   bool      `json:"running"`
	Target    string    `json:"target"`
	BodyHash  string    `json:"body_hash"`
	Status    int       `json:"status,omitempty"`
	Body      []byte    `json:"body,omitempty"`
	RequestAt time.Time `json:"request_at"`
	StoredAt  time.Time `json:"stored_at"`
}

// replayKey scopes a request id to the actor and the concrete target, so a
// reused id on another record or session never receives a foreign response.
func replayKey(actorID, requestID, method, path string) string {
	return "checksheet:replay:" + actorID + ":" + requestID + ":" + strings.ToLower(method) + ":" + path
}

type replayStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// claim takes the lock for key; false means the request was seen before.
func (s replayStore) claim(ctx context.Context, key string, r replay) (bool, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, lockTTL).Result()
}

func (s replayStore) load(ctx context.Context, key string) (replay, error) {
	var r replay
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, err
	}
	return r, nil
}

func (s replayStore) finish(ctx context.Context, key string, r replay) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

func (s replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// teeWriter copies the response body while passing it through.
type teeWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Idempotency guards save, submit, approve and reject against double taps.
// It must run after Identity. A repeat of a finished request (same actor,
// Ax-Request-Id, method and path) gets the stored response; a repeat while
// the first is still running, or with a different body, is a 409. Server
// errors are not stored so the client can retry with the same id.
func Idempotency(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	store := replayStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			actor, err := identity.FromContext(req.Context())
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			}
			reqID := strings.ToLower(strings.TrimSpace(req.Header.Get(HeaderRequestID)))
			if reqID == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderRequestID})
			}
			if !validReqID(reqID) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderRequestID + " format"})
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			now := nowUTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": HeaderRequestAt + " too skewed"})
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			target := req.Method + " " + req.URL.Path
			key := replayKey(actor.ID, reqID, req.Method, req.URL.Path)
			first := replay{Running: true, Target: target, BodyHash: bodyDigest(body), RequestAt: reqAt, StoredAt: now}

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			claimed, err := store.claim(ctx, key, first)
			if err != nil {
				log.Error().Err(err).Str("target", target).Msg("idempotency store unavailable")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !claimed {
				prev, err := store.load(ctx, key)
				switch {
				case errors.Is(err, redis.Nil):
					// expired between claim and load; treat as still running
				case err != nil:
					log.Warn().Err(err).Str("target", target).Msg("idempotency entry unreadable")
				case prev.BodyHash != first.BodyHash:
					return c.JSON(http.StatusConflict, map[string]string{"error": HeaderRequestID + " reused with a different body"})
				case !prev.Running && prev.Status != 0:
					return c.Blob(prev.Status, echo.MIMEApplicationJSON, prev.Body)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = tw
			if err := next(c); err != nil {
				c.Error(err)
			}

			done := context.Background()
			if tw.status >= http.StatusInternalServerError {
				if err := store.release(done, key); err != nil {
					log.Warn().Err(err).Str("target", target).Msg("idempotency lock release failed")
				}
				return nil
			}
			final := first
			final.Running = false
			final.Status = tw.status
			final.Body = tw.body.Bytes()
			final.StoredAt = nowUTC()
			if err := store.finish(done, key, final); err != nil {
				log.Warn().Err(err).Str("target", target).Msg("idempotency entry save failed")
			}
			return nil
		}
	}
}
