// Package config reads shopfront configuration from .env files and the process environment.
package config

type Config interface {
	Get(string) string
	GetOrDefault(string, string) string
}
