// Package guard classifies request paths and decides redirect-or-continue
// for every incoming page request.
package guard

import (
	"strings"

	"crm/config"
)

// RouteClass is the access category of a request path.
type RouteClass int

const (
	// ClassPublic paths render for everyone.
	ClassPublic RouteClass = iota
	// ClassAuthOnly paths host the auth forms (login, register, recovery);
	// they render for visitors but bounce authenticated users away.
	ClassAuthOnly
	// ClassProtected paths require a verified session.
	ClassProtected
)

// String returns the class name for logging.
func (rc RouteClass) String() string {
	switch rc {
	case ClassAuthOnly:
		return "auth"
	case ClassProtected:
		return "protected"
	default:
		return "public"
	}
}

// Classifier sorts paths into public, auth-only and protected classes. The
// path lists live in configuration, not code: the classification rules are a
// product decision that has historically drifted when hard-coded.
//
// Classification is pure string matching with no side effects, so it is
// always evaluated before any network round trip.
type Classifier struct {
	publicPaths       map[string]struct{}
	authPrefixes      []string
	protectedPrefixes []string
}

// NewClassifier builds a classifier from the routes configuration.
func NewClassifier(cfg *config.RoutesConfig) *Classifier {
	classifier := &Classifier{
		publicPaths: make(map[string]struct{}, len(cfg.PublicPaths)),
	}

	for _, path := range cfg.PublicPaths {
		classifier.publicPaths[normalizePath(path)] = struct{}{}
	}
	for _, prefix := range cfg.AuthPrefixes {
		classifier.authPrefixes = append(classifier.authPrefixes, normalizePath(prefix))
	}
	for _, prefix := range cfg.ProtectedPrefixes {
		classifier.protectedPrefixes = append(classifier.protectedPrefixes, normalizePath(prefix))
	}

	return classifier
}

// Classify returns the access class of a request path. Classes are mutually
// exclusive: exact public paths win, then auth prefixes, then protected
// prefixes; anything unmatched renders publicly.
func (c *Classifier) Classify(path string) RouteClass {
	path = normalizePath(path)

	if _, ok := c.publicPaths[path]; ok {
		return ClassPublic
	}
	if matchesPrefix(path, c.authPrefixes) {
		return ClassAuthOnly
	}
	if matchesPrefix(path, c.protectedPrefixes) {
		return ClassProtected
	}

	return ClassPublic
}

// normalizePath strips a trailing slash so "/dashboard/" and "/dashboard"
// classify identically. The root path stays "/".
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}

	return path
}

// matchesPrefix reports whether path equals a prefix or sits under it as a
// sub-path. Matching is segment-boundary aware: "/login2" does not match the
// "/login" prefix.
func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	return false
}
