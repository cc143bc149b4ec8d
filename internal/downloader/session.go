package downloader

// Session carries the state of one invocation through resolution,
// acquisition and post-processing. Nothing in it is shared between runs.
type Session struct {
	URL       string
	Catalog   *Catalog
	Selection Selection
	Scratch   *Scratch
	State     AcquireState
	Acquired  *Acquired
	Output    Output
}

func newSession(url string, catalog *Catalog) *Session {
	return &Session{URL: url, Catalog: catalog, State: StateStart}
}
