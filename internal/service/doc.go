// Package service contains the application's use cases, orchestrating the
// task store and cache behind the HTTP and scheduler boundaries.
package service
