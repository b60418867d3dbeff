// Package domain implements the offline cache manager: a versioned asset
// cache that is populated at install time, retires older generations at
// activation, answers read-only requests from the cache and routes
// notification clicks to an application window.
//
// Handlers only touch host capabilities through the ports declared in
// ports.go, so the same worker runs inside the proxy runtime and against
// in-memory fakes.
package domain
