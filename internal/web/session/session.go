// Package session keeps the signed in user and pending flash messages in the fiber session storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "session"

	// FlashNotice is a success message.
	FlashNotice = "notice"
	// FlashAlert is an error message.
	FlashAlert = "alert"

	defaultExpiry = 12 * time.Hour
)

// ErrNoSession is returned when the request carries no usable session.
var ErrNoSession = errors.New("no session")

var (
	// Store is the global session store instance.
	Store *session.Store

	expiry = defaultExpiry
)

// Flash is a one-time message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Data represents the session data structure.
type Data struct {
	User    models.User `json:"user"`
	Flashes []Flash     `json:"flashes,omitempty"`
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}

	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrNoSession
	}

	return json.Unmarshal(byteData, s)
}

// Init initializes the session store. A nil storage selects fiber's in-memory storage.
func Init(storage fiber.Storage, exp time.Duration) {
	Store = session.New(session.Config{
		Storage:    storage,
		Expiration: exp,
	})

	if exp > 0 {
		expiry = exp
	}
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Current returns the session of the request, ErrNoSession when it has none.
func Current(c *fiber.Ctx) (*Data, error) {
	data := new(Data)

	if err := data.Read(c.Cookies(CookieName)); err != nil {
		return nil, err
	}

	if data.User.ID == 0 {
		return nil, ErrNoSession
	}

	return data, nil
}

// AddFlash queues a message for the next rendered page of this session.
func AddFlash(c *fiber.Ctx, kind, message string) error {
	data, err := Current(c)
	if err != nil {
		return err
	}

	data.Flashes = append(data.Flashes, Flash{Kind: kind, Message: message})

	return data.Write(c.Cookies(CookieName), expiry)
}

// PopFlashes returns and clears the queued messages.
func PopFlashes(c *fiber.Ctx) []Flash {
	data, err := Current(c)
	if err != nil || len(data.Flashes) == 0 {
		return nil
	}

	flashes := data.Flashes
	data.Flashes = nil

	_ = data.Write(c.Cookies(CookieName), expiry) //nolint:errcheck // messages are shown anyway

	return flashes
}
