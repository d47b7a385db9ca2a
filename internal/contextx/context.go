package contextx

// Key is a private type to avoid collisions in request context keys.
type Key string

// AccountIDKey is the context key used to store the authenticated account's ID (string).
const AccountIDKey Key = "accountID"

// OriginIPKey is the context key used to store the caller's origin address (string).
const OriginIPKey Key = "originIP"
