// Package server hosts the optional local HTTP front end started by
// `dict --serve`. It builds the Fiber application and the request middleware
// chain (panic recovery, request IDs, access logging); the routes package
// attaches the dictionary and cache endpoints. The service binds to the
// loopback interface only and shares the CLI's disk cache.
package server
