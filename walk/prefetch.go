// prefetch.go - optional background hash prefetch
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package walk

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/d3zd3z/asure2/hash"
)

// hashOfFile is a package-local indirection so tests can stub it.
var hashOfFile = hash.OfFile

// pending is one in-flight or completed prefetch request.
type pending struct {
	done chan struct{}
	sum  string
	err  error
}

// prefetcher hashes regular files in the background, one directory's
// worth of work ahead of the walker's own emission of that directory's
// NODE events. It changes nothing about the emitted stream, but every
// submitted file is hashed whether or not its digest is ever asked
// for. Submitting the same path twice is harmless; the second submit
// is a no-op.
type prefetcher struct {
	pool  *workPool[string]
	cache *xsync.MapOf[string, *pending]
}

func newPrefetcher(n int) *prefetcher {
	p := &prefetcher{cache: xsync.NewMapOf[string, *pending]()}
	p.pool = newWorkPool(n, func(_ int, path string) {
		e, ok := p.cache.Load(path)
		if !ok {
			return
		}
		e.sum, e.err = hashOfFile(path)
		close(e.done)
	})
	return p
}

// submit queues path for background hashing.
func (p *prefetcher) submit(path string) {
	e := &pending{done: make(chan struct{})}
	if _, loaded := p.cache.LoadOrStore(path, e); loaded {
		return
	}
	p.pool.submit(path)
}

// result blocks until path's prefetch completes and returns its digest.
// ok is false if path was never submitted.
func (p *prefetcher) result(path string) (sum string, err error, ok bool) {
	e, ok := p.cache.Load(path)
	if !ok {
		return "", nil, false
	}
	<-e.done
	return e.sum, e.err, true
}

// close drains all in-flight work. Safe to call even if nothing was
// ever submitted.
func (p *prefetcher) close() {
	p.pool.close()
}
