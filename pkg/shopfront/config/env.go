package config

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultAppName             = "shopfront"
	defaultHost                = "0.0.0.0"
	defaultPort                = 3000
	defaultMetricsPort         = 2121
	defaultAppEnv              = "development"
	defaultSSLMode             = "disable"
	defaultJWTExpiry           = time.Hour
	defaultHealthProbeTimeout  = 3 * time.Second
	defaultHealthFailureStatus = 200
)

// Env is the validated, typed view of the environment the service needs to start.
type Env struct {
	AppName    string `env:"APP_NAME"`
	AppVersion string `env:"APP_VERSION"`
	AppEnv     string `env:"APP_ENV" validate:"oneof=development production test"`

	Host        string `env:"HOST" validate:"required"`
	Port        int    `env:"PORT" validate:"min=1,max=65535"`
	MetricsPort int    `env:"METRICS_PORT" validate:"min=0,max=65535"`

	PostgresUser     string `env:"POSTGRES_USER" validate:"required"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" validate:"required"`
	PostgresDB       string `env:"POSTGRES_DB" validate:"required"`
	PostgresHost     string `env:"POSTGRES_HOST" validate:"required"`
	PostgresPort     int    `env:"POSTGRES_PORT" validate:"required,min=1,max=65535"`
	PostgresSSLMode  string `env:"POSTGRES_SSL_MODE" validate:"oneof=disable require verify-ca verify-full"`

	RedisHost     string `env:"REDIS_HOST" validate:"required"`
	RedisPort     int    `env:"REDIS_PORT" validate:"required,min=1,max=65535"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" validate:"min=0,max=15"`

	JWT

	HealthProbeTimeout  time.Duration `env:"HEALTH_PROBE_TIMEOUT" validate:"gt=0"`
	HealthFailureStatus int           `env:"HEALTH_FAILURE_STATUS" validate:"oneof=200 503"`
}

// JWT is the token signing configuration. The server and the token CLI both load it through here.
type JWT struct {
	JWTSecret string        `env:"JWT_SECRET" validate:"required,min=10"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" validate:"gt=0"`
	JWTIssuer string        `env:"JWT_ISSUER"`
}

// FieldError describes one environment variable that failed validation.
type FieldError struct {
	Variable string
	Reason   string
}

func (f FieldError) Error() string {
	return f.Variable + ": " + f.Reason
}

// ValidationError carries every invalid variable found while loading Env.
type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) Error() string {
	msgs := make([]string, 0, len(v.Fields))

	for _, f := range v.Fields {
		msgs = append(msgs, f.Error())
	}

	return "invalid environment: " + strings.Join(msgs, "; ")
}

var errNotNumber = errors.New("must be an integer")

// LoadEnv builds Env from c and validates it. All invalid variables are reported together in a *ValidationError.
func LoadEnv(c Config) (*Env, error) {
	p := &parser{conf: c}

	appName := c.GetOrDefault("APP_NAME", defaultAppName)

	env := &Env{
		AppName:    appName,
		AppVersion: c.GetOrDefault("APP_VERSION", "dev"),
		AppEnv:     c.GetOrDefault("APP_ENV", c.GetOrDefault("NODE_ENV", defaultAppEnv)),

		Host:        c.GetOrDefault("HOST", defaultHost),
		Port:        p.getInt("PORT", defaultPort),
		MetricsPort: p.getInt("METRICS_PORT", defaultMetricsPort),

		PostgresUser:     c.Get("POSTGRES_USER"),
		PostgresPassword: c.Get("POSTGRES_PASSWORD"),
		PostgresDB:       c.Get("POSTGRES_DB"),
		PostgresHost:     c.Get("POSTGRES_HOST"),
		PostgresPort:     p.getInt("POSTGRES_PORT", 0),
		PostgresSSLMode:  c.GetOrDefault("POSTGRES_SSL_MODE", defaultSSLMode),

		RedisHost:     c.Get("REDIS_HOST"),
		RedisPort:     p.getInt("REDIS_PORT", 0),
		RedisPassword: c.Get("REDIS_PASSWORD"),
		RedisDB:       p.getInt("REDIS_DB", 0),

		JWT: p.getJWT(appName),

		HealthProbeTimeout:  p.getDuration("HEALTH_PROBE_TIMEOUT", defaultHealthProbeTimeout),
		HealthFailureStatus: p.getInt("HEALTH_FAILURE_STATUS", defaultHealthFailureStatus),
	}

	if err := p.validate(env); err != nil {
		return nil, err
	}

	return env, nil
}

// LoadJWT builds and validates only the JWT_* part of Env, with the same defaults and error reporting as LoadEnv.
func LoadJWT(c Config) (*JWT, error) {
	p := &parser{conf: c}

	jwt := p.getJWT(c.GetOrDefault("APP_NAME", defaultAppName))

	if err := p.validate(&jwt); err != nil {
		return nil, err
	}

	return &jwt, nil
}

// IsProduction reports whether APP_ENV is production.
func (e *Env) IsProduction() bool {
	return e.AppEnv == "production"
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("env")
	})

	return v
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters long"
		}

		return "must be >= " + fe.Param()
	case "max":
		return "must be <= " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// parser reads typed values and remembers the variables that could not be parsed, so that validation
// does not report them a second time with a misleading reason.
type parser struct {
	conf Config
	errs []FieldError
}

func (p *parser) getJWT(appName string) JWT {
	return JWT{
		JWTSecret: p.conf.Get("JWT_SECRET"),
		JWTExpiry: p.getDuration("JWT_EXPIRY", defaultJWTExpiry),
		JWTIssuer: p.conf.GetOrDefault("JWT_ISSUER", appName),
	}
}

// validate runs the struct tags of v and merges their failures with the parse failures already seen.
func (p *parser) validate(v any) error {
	fields := p.errs

	if err := newValidator().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}

		for _, fe := range verrs {
			if p.failed(fe.Field()) {
				continue
			}

			fields = append(fields, FieldError{Variable: fe.Field(), Reason: reason(fe)})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

func (p *parser) getInt(key string, def int) int {
	raw := p.conf.Get(key)
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.errs = append(p.errs, FieldError{Variable: key, Reason: errNotNumber.Error()})

		return def
	}

	return v
}

func (p *parser) getDuration(key string, def time.Duration) time.Duration {
	raw := p.conf.Get(key)
	if raw == "" {
		return def
	}

	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		p.errs = append(p.errs, FieldError{Variable: key, Reason: "must be a duration such as 3s or 1h"})

		return def
	}

	return v
}

func (p *parser) failed(key string) bool {
	for _, e := range p.errs {
		if e.Variable == key {
			return true
		}
	}

	return false
}
