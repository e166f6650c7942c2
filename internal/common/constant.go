package common

// AccessTokenCookieName is the cookie that carries the access credential for
// browser clients.
const AccessTokenCookieName = "access_token"

// AuthorizationHeaderName and BearerScheme describe the header form of the
// access credential: "Authorization: Bearer <token>".
const (
	AuthorizationHeaderName = "Authorization"
	BearerScheme            = "Bearer"
)

// Post field limits.
const (
	NameMaxLen     = 256
	LanguageMaxLen = 16
	ContentMaxLen  = 65536
)
