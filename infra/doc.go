// Package infra holds the technical adapters of the scheduler: input
// loaders, metrics exporters and schedule publishers. They depend only on
// the interfaces declared in the core packages.
package infra
