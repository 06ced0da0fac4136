// Package resource resolves logical resource names to existing paths.
//
// A name such as "node" or "service-dist" is probed in a fixed order and
// the first existing candidate wins:
//
//  1. <resource dir>/<name>            packaged resources reported by the host
//  2. <exe dir>/<name>                 next to the binary
//  3. <exe dir>/_up_/<name>            resources nested one level up by the bundler
//  4. <exe dir>/../resources/<name>    sibling resources directory
//
// A miss is not an error: Resolve reports false and the caller falls back
// to another strategy.
package resource
