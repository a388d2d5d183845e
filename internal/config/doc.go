// Package config handles configuration loading for toolgate.
//
// # Overview
//
// Configuration starts from defaults, may be layered with a YAML file
// (with environment variable expansion), and is finally overridden by
// the process environment. Environment always wins.
//
// # Environment Variables
//
//   - PORT: gateway listen port (default 3000)
//   - JWT_PRIVATE_KEY: HS256 signing secret (default is an insecure
//     placeholder that must be overridden in production)
//   - TOKEN_TTL_SEC: access token lifetime in seconds (default 3600)
//   - USER_CODE_TTL_SEC: authorization code lifetime in seconds (default 600)
//   - AGGREGATE_PORT: aggrd listen port (default 3001)
//   - AGGREGATE_API_KEYS: comma-separated user:key pairs for aggrd
//   - DATABASE_PATH: aggrd SQLite database path
//   - LOG_LEVEL, LOG_FORMAT: logging configuration
//
// # Configuration File
//
// A YAML file may be passed via the TOOLGATE_CONFIG environment
// variable. Values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${TOOLGATE_JWT_SECRET}"
//	  token_ttl: "1h"
//	  user_code_ttl: "10m"
//	  principals:
//	    - username: alice
//	      password_hash: "$2a$10$..."
//
// Duration values use Go's time.ParseDuration syntax.
//
// # Validation
//
// Load() validates port ranges, non-empty signing secret, positive
// TTLs, and that each seed principal carries a credential.
package config
