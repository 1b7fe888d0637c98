// Package executor resolves every query of a registry exactly once per
// executor and caches the results for the executor's lifetime.
//
// # Protocol
//
// The first call to Executor.Resolve:
//  1. Resolves the endpoint. A missing endpoint is a ConfigurationError and no
//     transport call is made.
//  2. Builds the transport, applying the client configuration hook.
//  3. Walks a snapshot of the registry in registration order. For each name it
//     turns the definition into an executable document (structured
//     expressions are converted directly; literal text goes through
//     Transport.Parse), looks up the variables provider registered for that
//     name, executes, and normalizes the response data.
//  4. Commits all results at once and marks the executor as executed.
//
// Later calls return the same *Results without touching the transport.
//
// # Normalization
//
// When the response data object has a top-level key equal to the query name,
// the value under that key is the result. Otherwise the whole data object is
// the result. Literal queries that alias their root field, or that select
// several root fields, rely on this fallback.
//
// # Failure
//
// Queries run sequentially; the first failure aborts the pass and is returned
// as a TransportError. Results staged before the failure are discarded: the
// executor stays unexecuted and the next Resolve call runs every query again.
// The registry is never written to, so a failure cannot leave it half
// resolved.
package executor
