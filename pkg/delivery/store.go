package delivery

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
)

// Sentinel errors returned by every Store.
var (
	ErrNotFound  = errs.New(errs.ErrCodeTokenNotFound, "download not found")
	ErrExpired   = errs.New(errs.ErrCodeTokenExpired, "download link has expired")
	ErrConsumed  = errs.New(errs.ErrCodeTokenConsumed, "download link was already used")
	ErrDuplicate = errors.New("token already issued")
)

// Artifact is one encoded file held for download.
type Artifact struct {
	Format       string `json:"format" bson:"format"`
	ContentType  string `json:"content_type" bson:"content_type"`
	Filename     string `json:"filename" bson:"filename"`
	TemplateID   string `json:"template_id" bson:"template_id"`
	GenerationID string `json:"generation_id" bson:"generation_id"`
	Data         []byte `json:"-" bson:"data,omitempty"`
}

// Entry is an artifact with its lifetime.
type Entry struct {
	Artifact
	// ExpiresAt is the first instant the entry can no longer be redeemed.
	ExpiresAt time.Time
	// PurgeAt is when the entry's tombstone may be forgotten.
	PurgeAt time.Time
}

// Store persists entries keyed by (token, format).
type Store interface {
	// Put stores one entry per format under token. It fails with
	// ErrDuplicate if token was already issued.
	Put(ctx context.Context, token string, entries []Entry) error

	// Redeem atomically consumes the entry for (token, format) and returns
	// its artifact. It returns ErrNotFound, ErrConsumed or ErrExpired, in
	// that order of precedence, when the entry cannot be served at now.
	Redeem(ctx context.Context, token, format string, now time.Time) (Artifact, error)

	// Sweep releases payloads of entries expired at now and purges
	// tombstones past their retention. It returns the number of entries
	// changed.
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Close releases the store's resources.
	Close() error
}

// TokenBytes is the entropy of a delivery token.
const TokenBytes = 32

// NewToken returns a cryptographically random, URL-safe token.
func NewToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidToken reports whether s has the shape of a token from NewToken.
func ValidToken(s string) bool {
	if len(s) != base64.RawURLEncoding.EncodedLen(TokenBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}
