// Package strategies implements the chat router: a rule table that turns a
// model identifier into an ordered failover chain of credentials, and an
// executor that walks the chain until one upstream answers.
//
//   - Conditional: ordered routing rules, first match wins.
//   - Failover:    sequential attempts over a chain with a fixed pause
//     between them, driven by the Advance state machine.
//
// Nothing here keeps state between requests.
package strategies

import "errors"

// ErrNoCredentials is returned by Failover.Execute for an empty chain.
var ErrNoCredentials = errors.New("no credentials in failover chain")
