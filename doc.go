// Package main provides the entry point of knowledge-console.
// It runs a local web console built on Fiber and a set of commands for the
// Knowledge API. Both share one login session: the bearer token is kept in a
// gorm backed key/value storage, validated against the API on start and
// dropped as soon as the API rejects it.
package main
