// Package config handles application configuration loading and validation.
//
// Configuration is loaded from a YAML file and validated using struct
// tags. A .env file and environment variables can override the secrets
// (feed API key, NATS URL). The engine's tuned constants — connectivity
// tolerance, snap threshold, retirement proximity and the animation
// timings — are configuration here rather than hard-coded, because they
// are network-scale dependent.
package config
