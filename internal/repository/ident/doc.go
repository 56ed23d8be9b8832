// Package ident persists the per-project identity record: a stable project
// identifier plus the last packaged version. The release command advances it
// after every successful run.
package ident
