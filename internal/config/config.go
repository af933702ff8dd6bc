package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    BaseURL        string // public base URL used in email links and OAuth redirects
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing

    SMTPHost  string // SMTP host for outbound email
    SMTPPort  string // SMTP port for outbound email
    SMTPUser  string // SMTP username (optional)
    SMTPPass  string // SMTP password (optional)
    FromEmail string // From address on outbound email

    GoogleClientID       string // Google OAuth client id
    GoogleClientSecret   string // Google OAuth client secret
    FacebookClientID     string // Facebook OAuth app id
    FacebookClientSecret string // Facebook OAuth app secret
    AppleClientID        string // Apple Services ID (audience of identity tokens)
    AppleTeamID          string // Apple developer team id (client secret issuer)
    AppleKeyID           string // Apple private key id (client secret kid header)
    ApplePrivateKey      string // PEM-encoded ES256 key for signing client secrets
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Mail and OAuth
// settings are optional: when unset the related flows degrade (email events
// are still published, providers without credentials reject sign-in).
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),             // environment (dev/test/prod)
        Port:           must("APP_PORT"),            // port to bind the HTTP server
        BaseURL:        getenvDefault("APP_BASE_URL", "http://localhost:3000"),
        DBUser:         must("DB_USER"),             // database user
        DBPass:         os.Getenv("DB_PASS"),        // database password (empty allowed)
        DBHost:         must("DB_HOST"),             // database host
        DBPort:         must("DB_PORT"),             // database port
        DBName:         must("DB_NAME"),             // database name
        JWTSecret:      must("JWT_SECRET"),          // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
        BcryptCost:     mustInt("BCRYPT_COST"),      // bcrypt cost factor

        SMTPHost:  getenvDefault("SMTP_HOST", "smtp.gmail.com"),
        SMTPPort:  getenvDefault("SMTP_PORT", "587"),
        SMTPUser:  os.Getenv("SMTP_USER"),
        SMTPPass:  os.Getenv("SMTP_PASS"),
        FromEmail: getenvDefault("FROM_EMAIL", "noreply@funcprovider.local"),

        GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
        GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
        FacebookClientID:     os.Getenv("FACEBOOK_CLIENT_ID"),
        FacebookClientSecret: os.Getenv("FACEBOOK_CLIENT_SECRET"),
        AppleClientID:        os.Getenv("APPLE_CLIENT_ID"),
        AppleTeamID:          os.Getenv("APPLE_TEAM_ID"),
        AppleKeyID:           os.Getenv("APPLE_KEY_ID"),
        ApplePrivateKey:      os.Getenv("APPLE_PRIVATE_KEY"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// getenvDefault returns the environment value for key or def when unset.
func getenvDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}
