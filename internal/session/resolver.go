package session

import (
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const DefaultDevUserID int64 = 12345

// Resolver maps an identity supplied by the embedding host to a ledger account key.
// The mapping is deterministic and never fails.
type Resolver struct {
	devUserID int64
}

func NewResolver(devUserID int64) *Resolver {
	if devUserID <= 0 {
		devUserID = DefaultDevUserID
	}
	return &Resolver{devUserID: devUserID}
}

// Resolve returns the account key for identity. Positive numeric ids are used as is,
// other strings are hashed, and an empty identity falls back to the development user.
func (r *Resolver) Resolve(identity string) int64 {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return r.devUserID
	}

	if id, err := strconv.ParseInt(identity, 10, 64); err == nil && id > 0 {
		return id
	}

	id := int64(xxhash.Sum64String(identity) & math.MaxInt64)
	if id == 0 {
		return r.devUserID
	}
	return id
}

func (r *Resolver) DevUserID() int64 {
	return r.devUserID
}
